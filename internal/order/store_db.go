package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"ChocoStore/internal/catalog"
)

const (
	pgUniqueCode = "23505"

	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	number     TEXT NOT NULL UNIQUE,
	subtotal   NUMERIC NOT NULL,
	tax        NUMERIC NOT NULL,
	total      NUMERIC NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS order_lines (
	order_id   TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position   INT NOT NULL,
	product_id TEXT NOT NULL,
	name       TEXT NOT NULL,
	unit_price NUMERIC NOT NULL,
	quantity   INT NOT NULL CHECK (quantity > 0),
	PRIMARY KEY (order_id, position)
)`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Create(ctx context.Context, o Order) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, number, subtotal, tax, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, o.ID, o.Number, o.Subtotal.String(), o.Tax.String(), o.Total.String(), o.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateNumber
	}
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_lines (order_id, position, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range o.Lines {
		if _, err := stmt.ExecContext(ctx, o.ID, i, l.ProductID.String(), l.Name, l.UnitPrice.String(), l.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) GetByNumber(ctx context.Context, number string) (Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var (
		o                    Order
		subtotal, tax, total string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, number, subtotal::text, tax::text, total::text, created_at
		FROM orders
		WHERE number = $1
	`, number).Scan(&o.ID, &o.Number, &subtotal, &tax, &total, &o.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}

	if o.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return Order{}, false, err
	}
	if o.Tax, err = decimal.NewFromString(tax); err != nil {
		return Order{}, false, err
	}
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return Order{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price::text, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY position ASC
	`, o.ID)
	if err != nil {
		return Order{}, false, err
	}
	defer rows.Close()

	lines := make([]Line, 0, 4)
	for rows.Next() {
		var (
			l     Line
			id    string
			price string
		)
		if err := rows.Scan(&id, &l.Name, &price, &l.Quantity); err != nil {
			return Order{}, false, err
		}
		l.ProductID = catalog.ProductID(id)
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return Order{}, false, err
		}
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return Order{}, false, err
	}
	o.Lines = lines

	return o, true, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}

package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"ChocoStore/internal/catalog"
)

var ErrMalformedSnapshot = errors.New("malformed cart snapshot")

type snapshotLine struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// legacyLine also accepts the denormalized shape written by the old web
// storefront: display fields are ignored and "cantidad" stands in for quantity.
type legacyLine struct {
	ID       string `json:"id"`
	Quantity *int   `json:"quantity"`
	Cantidad *int   `json:"cantidad"`
}

// EncodeSnapshot serializes lines in order. Display data is never written;
// it is looked up from the catalog on read.
func EncodeSnapshot(lines []Line) ([]byte, error) {
	out := make([]snapshotLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, snapshotLine{ID: l.ProductID.String(), Quantity: l.Quantity})
	}
	return json.Marshal(out)
}

func DecodeSnapshot(data []byte) ([]Line, error) {
	var raw []legacyLine
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}

	lines := make([]Line, 0, len(raw))
	seen := make(map[catalog.ProductID]struct{}, len(raw))

	for i, r := range raw {
		if r.ID == "" {
			return nil, fmt.Errorf("%w: line %d has no id", ErrMalformedSnapshot, i)
		}

		qty := 0
		switch {
		case r.Quantity != nil:
			qty = *r.Quantity
		case r.Cantidad != nil:
			qty = *r.Cantidad
		}
		if qty < 1 {
			return nil, fmt.Errorf("%w: line %q has quantity %d", ErrMalformedSnapshot, r.ID, qty)
		}

		id := catalog.ProductID(r.ID)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate line %q", ErrMalformedSnapshot, r.ID)
		}
		seen[id] = struct{}{}

		lines = append(lines, Line{ProductID: id, Quantity: qty})
	}

	return lines, nil
}

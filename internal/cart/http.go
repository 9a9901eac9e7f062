package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ChocoStore/internal/catalog"
	"ChocoStore/pkg/kit"
)

// TokenHeader carries the signed cart session token both ways.
const TokenHeader = "X-Cart-Token"

type ctxKey struct{}

func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok
}

func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Session resolves the caller's cart from the X-Cart-Token header. A missing
// or invalid token starts a new session; the token in effect is always echoed
// back so the client can keep it.
func Session(tokens *TokenMaker, sessions *Sessions, log *zap.Logger) func(http.Handler) http.Handler {
	log = kit.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(TokenHeader)

			var sessionID string
			if raw != "" {
				claims, err := tokens.Parse(raw)
				if err != nil {
					log.Debug("cart token rejected", zap.Error(err))
				} else {
					sessionID = claims.SessionID
				}
			}

			token := raw
			if sessionID == "" {
				sessionID = uuid.NewString()
				var err error
				if token, err = tokens.New(sessionID); err != nil {
					log.Error("cart token sign failed", zap.Error(err))
					kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
					return
				}
			}
			w.Header().Set(TokenHeader, token)

			store, err := sessions.Get(r.Context(), sessionID)
			if err != nil {
				log.Error("cart load failed", zap.String("cart", sessionID), zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, "cart unavailable", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), store)))
		})
	}
}

type Server struct {
	Log *zap.Logger
}

type addReq struct {
	ProductID catalog.ProductID `json:"product_id"`
	Quantity  *int              `json:"quantity"`
}

type setReq struct {
	Quantity int `json:"quantity"`
}

// Routes expects the Session middleware to have run.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.summary)
	r.Delete("/", s.clear)
	r.Get("/quote", s.quote)

	r.Post("/items", s.add)
	r.Put("/items/{id}", s.set)
	r.Delete("/items/{id}", s.remove)
	r.Post("/items/{id}/increment", s.increment)
	r.Post("/items/{id}/decrement", s.decrement)

	return r
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	s.writeSummary(w, r, store)
}

func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "code required", nil)
		return
	}

	sum, err := store.Summary(code)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, sum)
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	if err := store.Add(r.Context(), req.ProductID, qty); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSummary(w, r, store)
}

func (s *Server) set(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}

	var req setReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := store.SetQuantity(r.Context(), productParam(r), req.Quantity); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSummary(w, r, store)
}

func (s *Server) increment(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, (*Store).Increment)
}

func (s *Server) decrement(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, (*Store).Decrement)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, (*Store).Remove)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSummary(w, r, store)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request, op func(*Store, context.Context, catalog.ProductID) error) {
	store, ok := s.store(w, r)
	if !ok {
		return
	}
	if err := op(store, r.Context(), productParam(r)); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeSummary(w, r, store)
}

func (s *Server) store(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	store, ok := FromContext(r.Context())
	if !ok {
		kit.OrNop(s.Log).Error("cart route reached without session")
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
	return store, ok
}

func (s *Server) writeSummary(w http.ResponseWriter, r *http.Request, store *Store) {
	sum, err := store.Summary("")
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, sum)
}

func productParam(r *http.Request) catalog.ProductID {
	return catalog.ProductID(chi.URLParam(r, "id"))
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrUnknownProduct), errors.Is(err, ErrNotInCart):
		kit.WriteError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrInsufficientStock):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrUnknownPromo):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	default:
		kit.OrNop(s.Log).Error("cart operation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

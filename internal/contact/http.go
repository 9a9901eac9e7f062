package contact

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ChocoStore/pkg/kit"
)

type Server struct {
	Submitter *Submitter
	Limiter   *kit.IPRateLimiter
	Log       *zap.Logger
}

func (s *Server) Handler() http.Handler {
	h := http.Handler(http.HandlerFunc(s.submit))
	if s.Limiter != nil {
		h = s.Limiter.Middleware(h)
	}
	return h
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	var f Form
	if err := kit.DecodeJSON(w, r, &f); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	receipt, err := s.Submitter.Submit(r.Context(), f)

	var fields FieldErrors
	switch {
	case err == nil:
		kit.WriteJSON(w, http.StatusAccepted, receipt)
	case errors.As(err, &fields):
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "validation failed", fields)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		kit.OrNop(s.Log).Error("contact submit failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

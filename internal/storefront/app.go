package storefront

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ChocoStore/internal/cart"
	"ChocoStore/internal/catalog"
	"ChocoStore/internal/contact"
	"ChocoStore/internal/order"
	"ChocoStore/pkg/kit"
)

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry
	Metrics  *kit.Metrics

	MetricsEnabled bool
	MetricsToken   string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Check is one dependency probed by /readyz.
type Check struct {
	Name string
	Pinger
}

type Deps struct {
	Catalog  *catalog.Catalog
	Sessions *cart.Sessions
	Tokens   *cart.TokenMaker
	Orders   *order.Service
	Contact  *contact.Submitter
	Limiter  *kit.IPRateLimiter
	Checks   []Check
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	log := kit.OrNop(httpDeps.Log)

	catalogSrv := &catalog.Server{Catalog: deps.Catalog, Log: log}
	cartSrv := &cart.Server{Log: log}
	orderSrv := &order.Server{Service: deps.Orders, Log: log}
	contactSrv := &contact.Server{Submitter: deps.Contact, Limiter: deps.Limiter, Log: log}

	r := chi.NewRouter()
	setupMiddleware(r, httpDeps)
	setupMetrics(r, httpDeps)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps.Checks, log))

	catalogSrv.Register(r)

	r.Group(func(sr chi.Router) {
		sr.Use(cart.Session(deps.Tokens, deps.Sessions, log))
		sr.Mount("/cart", cartSrv.Routes())
		sr.Post("/checkout", orderSrv.CheckoutHandler())
	})

	r.Get("/orders/{number}", orderSrv.GetHandler())
	r.Method(http.MethodPost, "/contact", contactSrv.Handler())

	return r, nil
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("storefront: catalog is required")
	case d.Sessions == nil || d.Tokens == nil:
		return errors.New("storefront: cart sessions and tokens are required")
	case d.Orders == nil:
		return errors.New("storefront: order service is required")
	case d.Contact == nil:
		return errors.New("storefront: contact submitter is required")
	}
	return nil
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil || deps.Metrics == nil {
		return
	}

	r.Use(deps.Metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(checks []Check, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, c := range checks {
			if err := probe(ctx, c); err != nil {
				log.Warn("readyz failed: "+c.Name, zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, c.Name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func probe(ctx context.Context, c Check) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()
	return c.Ping(cctx)
}

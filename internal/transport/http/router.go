// Package httptransport assembles the public HTTP surface: the gateway
// webhook, the privileged admin endpoint, and operational routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "aquita/internal/admin/handler"
	"aquita/internal/platform/middleware"
	webhookhandler "aquita/internal/webhook/handler"
)

// Deps carries the handlers the router composes. Nil optional handlers are
// simply not mounted, which keeps tests small.
type Deps struct {
	Webhook *webhookhandler.Handler
	Admin   *adminhandler.Handler
	Logger  *slog.Logger

	// RequestTimeout bounds handling including awaited external calls.
	RequestTimeout time.Duration
}

// NewRouter wires middleware and endpoints. Middleware order matters: the
// request ID must exist before recovery or logging reference it.
func NewRouter(deps Deps) http.Handler {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))

	// The webhook stays outside the timeout budget: http.TimeoutHandler
	// answers 503 on expiry, and any non-200 makes the gateway re-deliver the
	// message against already-mutated conversation state.
	if deps.Webhook != nil {
		deps.Webhook.Register(r)
	}

	r.Group(func(g chi.Router) {
		g.Use(middleware.Timeout(deps.RequestTimeout))

		g.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		g.Method(http.MethodGet, "/metrics", promhttp.Handler())

		if deps.Admin != nil {
			deps.Admin.Register(g)
		}
	})

	return r
}

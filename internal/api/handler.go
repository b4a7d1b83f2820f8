// Package api exposes the proxy, webhook, and administrative HTTP surface.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/proxy"
	"github.com/waroute/waroute/internal/registry"
	"github.com/waroute/waroute/internal/resolver"
	syncer "github.com/waroute/waroute/internal/sync"
)

// ProxyPrefix is the routing prefix stripped before forwarding.
const ProxyPrefix = "/proxy"

// WebhookPath is the provider webhook mount point.
const WebhookPath = "/webhook"

// PhoneHeader is the dedicated identity header for the generic proxy path.
const PhoneHeader = "X-Phone-Number"

// maxBodyBytes caps buffered request bodies. Meta webhook events are a few
// KB; generic proxy bodies get the same generous ceiling.
const maxBodyBytes = 10 << 20

// Handler wires the routing engine to the HTTP surface.
type Handler struct {
	store       registry.Store
	resolver    *resolver.Resolver
	forwarder   *proxy.Forwarder
	syncer      *syncer.Syncer
	verifyToken string
	logger      *slog.Logger
}

// New creates the handler set. syncer may be nil when synchronization is
// disabled.
func New(store registry.Store, res *resolver.Resolver, fwd *proxy.Forwarder, sync *syncer.Syncer, verifyToken string, logger *slog.Logger) *Handler {
	return &Handler{
		store:       store,
		resolver:    res,
		forwarder:   fwd,
		syncer:      sync,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// Mount registers all routes on the router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/config", h.listRoutes)
	r.Post("/api/config", h.createRoute)
	r.Put("/api/config/{id}", h.updateRoute)
	r.Delete("/api/config/{id}", h.deleteRoute)
	r.Post("/api/sync", h.triggerSync)

	r.Get(WebhookPath, h.verifyWebhook)
	r.Post(WebhookPath, h.handleWebhook)

	r.HandleFunc(ProxyPrefix+"/*", h.handleProxy)
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRouteError maps a routing failure onto the generic proxy path's
// status codes (400/404/403/502).
func writeRouteError(w http.ResponseWriter, err *domain.RouteError) {
	body := map[string]string{
		"error": err.Message,
		"type":  string(err.Type),
	}
	if err.Phone != "" {
		body["phoneNumber"] = err.Phone
	}
	writeJSON(w, err.HTTPStatusCode(), body)
}

func asRouteError(err error) *domain.RouteError {
	var re *domain.RouteError
	if errors.As(err, &re) {
		return re
	}
	return domain.ErrUpstreamUnavailable(err.Error())
}

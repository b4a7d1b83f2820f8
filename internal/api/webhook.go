package api

import (
	"net/http"

	"github.com/waroute/waroute/internal/server"
	"github.com/waroute/waroute/internal/webhook"
)

// verifyWebhook answers Meta's subscription handshake: echo hub.challenge
// when the mode is subscribe and the shared token matches.
func (h *Handler) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "verification failed"})
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// handleWebhook is the event-delivery entry point. A body failing the
// recognized-shape check is a genuine client error. Every other failure is
// downgraded to a 200 acknowledgment with a diagnostic note: Meta treats
// non-2xx as a delivery failure and retries, and an unroutable event should
// be dropped, not redelivered.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	payload := webhook.Decode(body)
	identity, recognized := webhook.Parse(payload)
	if !recognized {
		server.AddLogField(r.Context(), "route_error", "malformed_payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "payload is not a recognized webhook event",
			"type":  "malformed_payload",
		})
		return
	}

	server.AddLogField(r.Context(), "phone", identity.RoutingPhone())
	server.AddLogField(r.Context(), "message_type", identity.MessageType)

	if identity.Empty() {
		h.acknowledge(w, r, "no routable identity in event")
		return
	}

	route, err := h.resolver.Resolve(r.Context(), identity)
	if err != nil {
		server.AddError(r.Context(), err)
		h.acknowledge(w, r, "no route configured for this number")
		return
	}

	if !route.Active {
		server.AddLogField(r.Context(), "route_error", "route_inactive")
		h.acknowledge(w, r, "route is disabled")
		return
	}

	server.AddLogField(r.Context(), "target", route.TargetURL)

	if err := h.forwarder.Forward(r.Context(), w, r, route, WebhookPath, body, identity.RoutingPhone()); err != nil {
		server.AddError(r.Context(), err)
		h.acknowledge(w, r, "destination unavailable")
	}
}

// acknowledge reports delivery success to the provider while noting why the
// event was not forwarded.
func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request, note string) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ignored",
		"note":   note,
	})
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/server"
	"github.com/waroute/waroute/internal/webhook"
)

// handleProxy is the generic forwarding entry point. The identity comes
// from the webhook payload when the body matches the recognized shape,
// otherwise from the X-Phone-Number header, the phone query parameter, or
// the phoneNumber body field, first non-empty wins.
func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	identity := extractIdentity(r, body)
	if identity.Empty() {
		server.AddLogField(r.Context(), "route_error", "missing_identity")
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "phone number is required",
			"hint":  "send the number in the " + PhoneHeader + " header, the \"phone\" query param, or a \"phoneNumber\" body field",
		})
		return
	}

	phoneNumber := identity.RoutingPhone()
	server.AddLogField(r.Context(), "phone", phoneNumber)

	route, err := h.resolver.Resolve(r.Context(), identity)
	if err != nil {
		server.AddError(r.Context(), err)
		writeRouteError(w, asRouteError(err))
		return
	}

	if !route.Active {
		re := domain.ErrRouteInactive("the route for this phone number is disabled").WithPhone(phoneNumber)
		server.AddError(r.Context(), re)
		writeRouteError(w, re)
		return
	}

	server.AddLogField(r.Context(), "target", route.TargetURL)

	if err := h.forwarder.Forward(r.Context(), w, r, route, ProxyPrefix, body, phoneNumber); err != nil {
		server.AddError(r.Context(), err)
		writeRouteError(w, asRouteError(err))
	}
}

// extractIdentity applies the dispatch policy for the identity source.
func extractIdentity(r *http.Request, body []byte) domain.NormalizedIdentity {
	if payload := webhook.Decode(body); payload != nil {
		if identity, ok := webhook.Parse(payload); ok {
			return identity
		}
	}

	if phone := r.Header.Get(PhoneHeader); phone != "" {
		return domain.NormalizedIdentity{SenderPhone: phone}
	}
	if phone := r.URL.Query().Get("phone"); phone != "" {
		return domain.NormalizedIdentity{SenderPhone: phone}
	}

	var fields struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := json.Unmarshal(body, &fields); err == nil && fields.PhoneNumber != "" {
		return domain.NormalizedIdentity{SenderPhone: fields.PhoneNumber}
	}

	return domain.NormalizedIdentity{}
}

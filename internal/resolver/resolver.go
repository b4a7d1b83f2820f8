// Package resolver picks the destination route for an inbound identity.
package resolver

import (
	"context"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/phone"
	"github.com/waroute/waroute/internal/registry"
)

// Resolver applies the precedence chain over the route registry:
// business-ID exact match, then sender-phone suffix match, then the first
// active default rule. Within each strategy the first rule in registry
// iteration order wins.
type Resolver struct {
	store registry.Store
}

// New creates a resolver over the given registry store.
func New(store registry.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the route for the identity, or a RouteNotFound error when
// no rule applies. Inactive business and sender rules are still returned;
// the dispatcher enforces the active flag so the caller can distinguish
// "disabled" from "unknown".
func (r *Resolver) Resolve(ctx context.Context, id domain.NormalizedIdentity) (*domain.RouteConfig, error) {
	routes, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	if id.PhoneNumberID != "" {
		for _, rc := range routes {
			if rc.RouteBy == domain.RouteByBusiness && rc.PhoneNumberID == id.PhoneNumberID {
				found := rc
				return &found, nil
			}
		}
	}

	candidates := phoneCandidates(id)
	if len(candidates) > 0 {
		for _, rc := range routes {
			if rc.RouteBy != domain.RouteBySender {
				continue
			}
			for _, candidate := range candidates {
				if phone.Matches(candidate, rc.PhoneNumber) {
					found := rc
					return &found, nil
				}
			}
		}
	}

	for _, rc := range routes {
		if rc.RouteBy == domain.RouteByDefault && rc.Active {
			found := rc
			return &found, nil
		}
	}

	return nil, domain.ErrRouteNotFound("no route configured for this identity").WithPhone(id.RoutingPhone())
}

func phoneCandidates(id domain.NormalizedIdentity) []string {
	var candidates []string
	if id.SenderPhone != "" {
		candidates = append(candidates, id.SenderPhone)
	}
	if id.DisplayPhoneNumber != "" {
		candidates = append(candidates, id.DisplayPhoneNumber)
	}
	return candidates
}

// Package registry defines the route registry contract shared by the
// routing engine, the admin API, and the synchronization job.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/waroute/waroute/internal/domain"
	"github.com/waroute/waroute/internal/phone"
)

// ErrNotFound is returned when no route exists for the given ID.
var ErrNotFound = errors.New("route not found")

// NewRoute holds the caller-supplied fields for Add.
type NewRoute struct {
	PhoneNumber   string         `json:"phoneNumber"`
	PhoneNumberID string         `json:"phoneNumberId"`
	TargetURL     string         `json:"targetUrl"`
	Description   string         `json:"description"`
	RouteBy       domain.RouteBy `json:"routeBy"`
}

// RouteUpdate is a partial update; nil fields are left untouched.
type RouteUpdate struct {
	PhoneNumber   *string         `json:"phoneNumber"`
	PhoneNumberID *string         `json:"phoneNumberId"`
	TargetURL     *string         `json:"targetUrl"`
	Description   *string         `json:"description"`
	RouteBy       *domain.RouteBy `json:"routeBy"`
	Active        *bool           `json:"active"`
}

// Candidate is one record from the external route-definition source.
type Candidate struct {
	PhoneNumber   string         `json:"phoneNumber"`
	PhoneNumberID string         `json:"phoneNumberId"`
	TargetURL     string         `json:"targetUrl"`
	Description   string         `json:"description"`
	RouteBy       domain.RouteBy `json:"routeBy"`
}

// Store is the registry contract. Implementations must provide atomic
// snapshot semantics: a ListAll that runs concurrently with any mutation
// observes either the old or the new full set, never a partial mix.
// Iteration order is insertion order; the resolver's first-match-wins
// semantics depend on it.
type Store interface {
	ListAll(ctx context.Context) ([]domain.RouteConfig, error)
	FindByID(ctx context.Context, id string) (*domain.RouteConfig, error)
	Add(ctx context.Context, n NewRoute) (*domain.RouteConfig, error)
	Update(ctx context.Context, id string, u RouteUpdate) (*domain.RouteConfig, error)
	Remove(ctx context.Context, id string) error

	// SyncFromExternal replaces every synced route with the usable subset of
	// candidates, leaving locally created routes untouched. It returns the
	// number of routes installed.
	SyncFromExternal(ctx context.Context, candidates []Candidate) (int, error)

	Close() error
}

// BuildRoute validates and normalizes a NewRoute into a full record.
func BuildRoute(n NewRoute) (domain.RouteConfig, error) {
	routeBy := n.RouteBy
	if routeBy == "" {
		routeBy = domain.RouteBySender
	}
	if !routeBy.Valid() {
		return domain.RouteConfig{}, fmt.Errorf("invalid routeBy %q", n.RouteBy)
	}

	if err := validateTargetURL(n.TargetURL); err != nil {
		return domain.RouteConfig{}, err
	}

	number := phone.Normalize(n.PhoneNumber)
	switch routeBy {
	case domain.RouteBySender:
		if number == "" {
			return domain.RouteConfig{}, errors.New("phoneNumber is required for sender routes")
		}
	case domain.RouteByBusiness:
		if n.PhoneNumberID == "" {
			return domain.RouteConfig{}, errors.New("phoneNumberId is required for business routes")
		}
	}

	now := time.Now().UTC()
	return domain.RouteConfig{
		ID:            uuid.New().String(),
		PhoneNumber:   number,
		PhoneNumberID: n.PhoneNumberID,
		TargetURL:     n.TargetURL,
		Description:   n.Description,
		RouteBy:       routeBy,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ApplyUpdate merges a partial update into rc, re-normalizing the phone
// number when one is provided and refreshing UpdatedAt.
func ApplyUpdate(rc *domain.RouteConfig, u RouteUpdate) error {
	if u.TargetURL != nil {
		if err := validateTargetURL(*u.TargetURL); err != nil {
			return err
		}
		rc.TargetURL = *u.TargetURL
	}
	if u.RouteBy != nil {
		if !u.RouteBy.Valid() {
			return fmt.Errorf("invalid routeBy %q", *u.RouteBy)
		}
		rc.RouteBy = *u.RouteBy
	}
	if u.PhoneNumber != nil {
		rc.PhoneNumber = phone.Normalize(*u.PhoneNumber)
	}
	if u.PhoneNumberID != nil {
		rc.PhoneNumberID = *u.PhoneNumberID
	}
	if u.Description != nil {
		rc.Description = *u.Description
	}
	if u.Active != nil {
		rc.Active = *u.Active
	}
	rc.UpdatedAt = time.Now().UTC()
	return nil
}

// MapCandidates converts sync candidates into synced route records, dropping
// any candidate without a usable identity or a valid target URL.
func MapCandidates(candidates []Candidate) []domain.RouteConfig {
	now := time.Now().UTC()
	var routes []domain.RouteConfig
	for _, c := range candidates {
		if validateTargetURL(c.TargetURL) != nil {
			continue
		}
		number := phone.Normalize(c.PhoneNumber)
		routeBy := c.RouteBy
		if routeBy == "" {
			routeBy = domain.RouteBySender
		}
		if !routeBy.Valid() {
			continue
		}
		usable := number != "" || (routeBy == domain.RouteByBusiness && c.PhoneNumberID != "") || routeBy == domain.RouteByDefault
		if !usable {
			continue
		}

		routes = append(routes, domain.RouteConfig{
			ID:            uuid.New().String(),
			PhoneNumber:   number,
			PhoneNumberID: c.PhoneNumberID,
			TargetURL:     c.TargetURL,
			Description:   c.Description,
			RouteBy:       routeBy,
			Active:        true,
			Synced:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return routes
}

func validateTargetURL(raw string) error {
	if raw == "" {
		return errors.New("targetUrl is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid targetUrl: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("targetUrl %q must be an absolute URL", raw)
	}
	return nil
}

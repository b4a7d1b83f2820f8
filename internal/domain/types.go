package domain

import "time"

// RouteBy selects which resolution strategy a route participates in.
type RouteBy string

const (
	// RouteBySender matches the sender's phone number with suffix tolerance.
	RouteBySender RouteBy = "sender"

	// RouteByBusiness matches the platform-assigned business phone number ID exactly.
	RouteByBusiness RouteBy = "business"

	// RouteByDefault is the fallback used when no sender or business rule resolves.
	RouteByDefault RouteBy = "default"
)

// Valid reports whether b is one of the known strategies.
func (b RouteBy) Valid() bool {
	switch b {
	case RouteBySender, RouteByBusiness, RouteByDefault:
		return true
	}
	return false
}

// RouteConfig is a routing rule mapping a phone identity to a destination.
type RouteConfig struct {
	ID            string    `json:"id"`
	PhoneNumber   string    `json:"phoneNumber"`
	PhoneNumberID string    `json:"phoneNumberId,omitempty"`
	TargetURL     string    `json:"targetUrl"`
	Description   string    `json:"description"`
	RouteBy       RouteBy   `json:"routeBy"`
	Active        bool      `json:"active"`
	Synced        bool      `json:"synced"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NormalizedIdentity is the flattened identity extracted from an inbound
// request. Every field is optional; absence is an empty string, never an
// error.
type NormalizedIdentity struct {
	BusinessAccountID  string `json:"businessAccountId,omitempty"`
	PhoneNumberID      string `json:"phoneNumberId,omitempty"`
	DisplayPhoneNumber string `json:"displayPhoneNumber,omitempty"`
	SenderPhone        string `json:"senderPhone,omitempty"`
	MessageType        string `json:"messageType,omitempty"`
	MessageID          string `json:"messageId,omitempty"`
	Timestamp          string `json:"timestamp,omitempty"`
	ContactName        string `json:"contactName,omitempty"`
	Field              string `json:"field,omitempty"`
}

// RoutingPhone returns the phone number used for sender-strategy routing:
// the sender's phone when present, otherwise the business display number.
func (n NormalizedIdentity) RoutingPhone() string {
	if n.SenderPhone != "" {
		return n.SenderPhone
	}
	return n.DisplayPhoneNumber
}

// Empty reports whether the identity carries nothing usable for routing.
func (n NormalizedIdentity) Empty() bool {
	return n.PhoneNumberID == "" && n.SenderPhone == "" && n.DisplayPhoneNumber == ""
}

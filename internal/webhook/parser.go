// Package webhook recognizes Meta/WhatsApp Cloud API event payloads and
// flattens them into a NormalizedIdentity.
package webhook

import (
	"encoding/json"

	"github.com/waroute/waroute/internal/domain"
)

// ObjectType is the top-level discriminator Meta sets on WhatsApp events.
const ObjectType = "whatsapp_business_account"

// Decode parses raw JSON into the generic payload form used by IsRecognized
// and Parse. A nil map is returned for bodies that are not JSON objects.
func Decode(body []byte) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

// IsRecognized reports whether the payload carries the WhatsApp event
// envelope: the object discriminator plus an entry list (possibly empty).
func IsRecognized(payload map[string]any) bool {
	if payload == nil {
		return false
	}
	if obj, _ := payload["object"].(string); obj != ObjectType {
		return false
	}
	_, ok := payload["entry"].([]any)
	return ok
}

// Parse flattens a recognized payload into a NormalizedIdentity. It returns
// false when the payload is not a recognized envelope. Missing intermediate
// structure yields empty fields, never an error; Meta varies the nesting by
// event type.
func Parse(payload map[string]any) (domain.NormalizedIdentity, bool) {
	if !IsRecognized(payload) {
		return domain.NormalizedIdentity{}, false
	}

	entry := firstObject(payload["entry"])
	change := firstObject(entry["changes"])
	value := object(change["value"])
	metadata := object(value["metadata"])
	message := firstObject(value["messages"])
	contact := firstObject(value["contacts"])

	id := domain.NormalizedIdentity{
		BusinessAccountID:  str(entry["id"]),
		PhoneNumberID:      str(metadata["phone_number_id"]),
		DisplayPhoneNumber: str(metadata["display_phone_number"]),
		SenderPhone:        senderPhone(value),
		MessageType:        str(message["type"]),
		MessageID:          str(message["id"]),
		Timestamp:          str(message["timestamp"]),
		ContactName:        str(object(contact["profile"])["name"]),
		Field:              str(change["field"]),
	}

	// Status-only deliveries carry no message object.
	if id.MessageType == "" {
		id.MessageType = "status"
	}

	return id, true
}

// senderPhone extracts the sender's number, trying the locations Meta uses
// in this order: messages[0].from, contacts[0].wa_id, statuses[0].recipient_id.
func senderPhone(value map[string]any) string {
	if from := str(firstObject(value["messages"])["from"]); from != "" {
		return from
	}
	if waID := str(firstObject(value["contacts"])["wa_id"]); waID != "" {
		return waID
	}
	return str(firstObject(value["statuses"])["recipient_id"])
}

// object narrows v to a JSON object, returning nil (safe to index) otherwise.
func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// firstObject returns the first element of a JSON array when that element is
// an object, else nil.
func firstObject(v any) map[string]any {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	return object(list[0])
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// Package queue defines the tap.recorded message and the consumer that
// turns it into an append-only audit log.
package queue

import (
	"time"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// TapRecordedEvent is published after a tap row is committed. It carries
// everything a downstream consumer needs without reading the database,
// including the client environment snapshot, which is not stored in the
// tap row.
type TapRecordedEvent struct {
	TapID        uint64  `json:"tap_id"`
	TagID        string  `json:"tag_id"`
	TenantID     uint64  `json:"empresa_id"`
	RecordedAt   string  `json:"recorded_at"`
	IPAddress    string  `json:"ip_address,omitempty"`
	UserAgent    string  `json:"user_agent,omitempty"`
	LocationData *string `json:"location_data"`
	ClientInfo   *string `json:"client_info"`
}

// NewTapRecordedEvent builds the event for a stored tap.
func NewTapRecordedEvent(tap model.TapEvent, clientInfo *string) TapRecordedEvent {
	return TapRecordedEvent{
		TapID:        tap.ID,
		TagID:        tap.TagID,
		TenantID:     tap.TenantID,
		RecordedAt:   tap.Timestamp.UTC().Format(time.RFC3339),
		IPAddress:    tap.IPAddress,
		UserAgent:    tap.UserAgent,
		LocationData: tap.LocationData,
		ClientInfo:   clientInfo,
	}
}

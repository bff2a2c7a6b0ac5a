package model

import "time"

// TapEvent is one append-only record of a physical tap. TenantID is
// copied from the tag at write time and never re-derived, so a tap
// keeps its original attribution even if the tag is later deleted.
type TapEvent struct {
	ID           uint64    // nfc_taps.id
	TagID        string    // nfc_taps.tag_id (not a foreign key)
	TenantID     uint64    // nfc_taps.empresa_id
	Timestamp    time.Time // nfc_taps.timestamp, UTC, server assigned
	IPAddress    string    // nfc_taps.ip_address
	UserAgent    string    // nfc_taps.user_agent
	LocationData *string   // nfc_taps.location_data, opaque JSON from the client
}

// Location is the decoded shape of TapEvent.LocationData. The server
// never parses it; the tap client produces it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Timestamp int64   `json:"timestamp"` // capture time, Unix milliseconds
}

// ClientEnv is the decoded shape of the clientInfo payload sent with a
// tap. It is forwarded on the tap.recorded event but not stored.
type ClientEnv struct {
	ScreenWidth      int     `json:"screenWidth"`
	ScreenHeight     int     `json:"screenHeight"`
	DevicePixelRatio float64 `json:"devicePixelRatio"`
	Platform         string  `json:"platform"`
	Language         string  `json:"language"`
}

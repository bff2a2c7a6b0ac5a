package model

// Tag is a physical NFC token registered by a tenant. TagID is the
// external identifier printed on or encoded into the tag; it is unique
// across all tenants because a tap carries no tenant context.
//
// PublicURL is returned verbatim to tappers. It is validated when a tag
// is created through the API, but rows written by other means are not
// re-checked on read.
type Tag struct {
	ID        uint64 // nfc_tags.id
	TagID     string // nfc_tags.tag_id
	Label     string // nfc_tags.data
	PublicURL string // nfc_tags.public_url
	TenantID  uint64 // nfc_tags.empresa_id
}

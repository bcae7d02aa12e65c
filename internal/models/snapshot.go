package models

// SnapshotVersion is the schema tag written into new snapshots.
const SnapshotVersion = 1

// Snapshot is a self-contained copy of the document state. The JSON field
// names are part of the link format and must not change.
type Snapshot struct {
	Version   int            `json:"v" cbor:"v"`
	CreatedAt int64          `json:"createdAt" cbor:"createdAt"`
	Role      Role           `json:"role" cbor:"role"`
	Mode      Mode           `json:"mode" cbor:"mode"`
	Label     string         `json:"label" cbor:"label"`
	FormData  map[string]any `json:"formData" cbor:"formData"`

	// Images maps a logical image key to an asset reference, a URL or a
	// compressed data URI. A nil map means images were omitted.
	Images map[string]string `json:"images" cbor:"images"`
}

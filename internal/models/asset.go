package models

import "time"

// Asset is a stored binary object. ID is the lower-case hex SHA-256 digest
// of Payload and is the only identity the store knows about.
type Asset struct {
	ID        string
	Name      string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time

	// Payload is filled by AssetStore.Get and left nil by List.
	Payload []byte
}

// AssetMeta carries the caller-supplied metadata for a new asset. Empty
// fields are defaulted by the store.
type AssetMeta struct {
	Name     string
	MimeType string
}

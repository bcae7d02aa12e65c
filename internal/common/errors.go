// Package common defines shared constants and sentinel errors used across
// the sharevault storage, registry and sharing layers. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Asset store errors.
	ErrInvalidAssetID = errors.New("invalid asset id")
	ErrAssetTooLarge  = errors.New("asset exceeds the maximum allowed size, reduce image sizes and try again")
	ErrStorageFull    = errors.New("local storage is full, reduce image sizes or remove old assets")

	// Share link errors. The messages are shown to viewers as-is.
	ErrLinkNotFound = errors.New("link not found")
	ErrLinkExpired  = errors.New("link has expired")

	// Snapshot errors.
	ErrSnapshotDecode = errors.New("invalid snapshot link")

	// Capability errors.
	ErrPermissionDenied = errors.New("permission denied")

	// Settings errors.
	ErrInvalidPIN = errors.New("invalid admin pin")
)

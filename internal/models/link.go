package models

import "time"

// ShareLink is a locally registered share link. Only AccessCount,
// LastAccessed and the row's existence change after creation.
type ShareLink struct {
	ID                string
	CreatedAt         time.Time
	ExpiresAt         time.Time
	CreatedBy         Role
	Role              Role
	Mode              Mode
	Label             string
	AllowEdit         bool
	ShowRoleIndicator bool
	AccessCount       int64
	LastAccessed      *time.Time

	// Payload is an optional document-state snapshot kept with the link.
	Payload *Snapshot

	// IsExpired is derived at listing time.
	IsExpired bool
}

// Expired reports whether now is past ExpiresAt. The link is still valid at
// ExpiresAt itself.
func (l *ShareLink) Expired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// LinkConfig is the input to LinkRegistry.Create.
type LinkConfig struct {
	Role              Role
	Mode              Mode
	ExpiresIn         time.Duration
	Label             string
	CreatedBy         Role
	AllowEdit         bool
	ShowRoleIndicator bool
	Payload           *Snapshot
}

// Resolution reasons reported by LinkRegistry.Resolve.
const (
	ReasonNotFound = "not found"
	ReasonExpired  = "expired"
)

// Resolution is the outcome of resolving a managed link id.
type Resolution struct {
	Valid  bool
	Link   *ShareLink
	Reason string
}

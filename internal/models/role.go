package models

import "strings"

// Role is the capability context a viewer is placed into.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleClient Role = "client"
)

// Mode is the view mode of the document.
type Mode string

const (
	ModeEdit         Mode = "edit"
	ModePresentation Mode = "presentation"
)

// ParseRole normalises s into a known Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleAgent, RoleClient:
		return r, true
	default:
		return "", false
	}
}

// ParseMode normalises s into a known Mode. The short spelling "present"
// used by older links maps to ModePresentation.
func ParseMode(s string) (Mode, bool) {
	switch m := strings.ToLower(strings.TrimSpace(s)); m {
	case string(ModeEdit):
		return ModeEdit, true
	case string(ModePresentation), "present":
		return ModePresentation, true
	default:
		return "", false
	}
}

// RoleOr returns the parsed role or def when s is not a known role.
func RoleOr(s string, def Role) Role {
	if r, ok := ParseRole(s); ok {
		return r
	}
	return def
}

// ModeOr returns the parsed mode or def when s is not a known mode.
func ModeOr(s string, def Mode) Mode {
	if m, ok := ParseMode(s); ok {
		return m
	}
	return def
}

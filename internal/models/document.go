package models

// Document is the editable working state a share link carries.
type Document struct {
	Role     Role              `json:"role,omitempty"`
	Mode     Mode              `json:"mode,omitempty"`
	FormData map[string]any    `json:"formData"`
	Images   map[string]string `json:"images"`
}

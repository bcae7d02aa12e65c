package httpapi

import (
	"time"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/services"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type AssetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func ToAssetResponse(a *models.Asset) AssetResponse {
	return AssetResponse{ID: a.ID, Name: a.Name, Type: a.MimeType, Size: a.SizeBytes, CreatedAt: a.CreatedAt}
}

type LinkResponse struct {
	ID                string           `json:"id"`
	URL               string           `json:"url,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	ExpiresAt         time.Time        `json:"expiresAt"`
	CreatedBy         models.Role      `json:"createdBy"`
	Role              models.Role      `json:"role"`
	Mode              models.Mode      `json:"mode"`
	Label             string           `json:"label"`
	AllowEdit         bool             `json:"allowEdit"`
	ShowRoleIndicator bool             `json:"showRoleIndicator"`
	AccessCount       int64            `json:"accessCount"`
	LastAccessed      *time.Time       `json:"lastAccessed"`
	IsExpired         bool             `json:"isExpired"`
	Payload           *models.Snapshot `json:"payload,omitempty"`
}

func ToLinkResponse(l *models.ShareLink) LinkResponse {
	return LinkResponse{
		ID:                l.ID,
		CreatedAt:         l.CreatedAt,
		ExpiresAt:         l.ExpiresAt,
		CreatedBy:         l.CreatedBy,
		Role:              l.Role,
		Mode:              l.Mode,
		Label:             l.Label,
		AllowEdit:         l.AllowEdit,
		ShowRoleIndicator: l.ShowRoleIndicator,
		AccessCount:       l.AccessCount,
		LastAccessed:      l.LastAccessed,
		IsExpired:         l.IsExpired,
		Payload:           l.Payload,
	}
}

// CreateLinkRequest is the body of POST /links. ExpiresIn is a Go duration
// string such as "72h"; empty means the configured default.
type CreateLinkRequest struct {
	Role              string           `json:"role"`
	Mode              string           `json:"mode"`
	ExpiresIn         string           `json:"expiresIn"`
	Label             string           `json:"label"`
	AllowEdit         bool             `json:"allowEdit"`
	ShowRoleIndicator bool             `json:"showRoleIndicator"`
	Document          *models.Document `json:"document"`
	IncludeImages     bool             `json:"includeImages"`
}

type EmbedRequest struct {
	Role          string           `json:"role"`
	Mode          string           `json:"mode"`
	Label         string           `json:"label"`
	Document      *models.Document `json:"document" binding:"required"`
	IncludeImages bool             `json:"includeImages"`
	// Local selects the #share= form backed by the local snapshot table.
	Local bool `json:"local"`
}

type EmbedResponse struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url"`
	Token   string `json:"token,omitempty"`
	Length  int    `json:"length"`
	Warning string `json:"warning,omitempty"`
}

type ResolveRequest struct {
	URL      string           `json:"url" binding:"required"`
	Document *models.Document `json:"document"`
}

type ResolveResponse struct {
	Outcome           services.Outcome `json:"outcome"`
	Role              models.Role      `json:"role,omitempty"`
	Mode              models.Mode      `json:"mode,omitempty"`
	Notice            string           `json:"notice,omitempty"`
	HideShareControls bool             `json:"hideShareControls"`
	Link              *LinkResponse    `json:"link,omitempty"`
	Document          *models.Document `json:"document"`
}

type SettingsResponse struct {
	Admin        map[string]any `json:"admin"`
	PINSet       bool           `json:"pinSet"`
	Presentation map[string]any `json:"presentation"`
	Features     map[string]any `json:"features"`
	Roles        access.Table   `json:"roles"`
}

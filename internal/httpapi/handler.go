package httpapi

import (
	"errors"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/services"
	"github.com/gin-gonic/gin"
)

// Handler serves the /api routes.
type Handler struct {
	assets   services.AssetStore
	share    services.ShareService
	settings services.Settings
	oracle   access.Oracle
}

func NewHandler(assets services.AssetStore, share services.ShareService, settings services.Settings, oracle access.Oracle) *Handler {
	return &Handler{assets: assets, share: share, settings: settings, oracle: oracle}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	assets := rg.Group("/assets")
	{
		assets.POST("", h.UploadAsset)
		assets.GET("", h.ListAssets)
		assets.GET("/:id", h.GetAsset)
		assets.GET("/:id/display", h.DisplayAsset)
	}

	links := rg.Group("/links")
	{
		links.POST("", h.CreateLink)
		links.GET("", h.ListLinks)
		links.DELETE("/:id", h.RevokeLink)
	}

	rg.POST("/embed", h.Embed)
	rg.POST("/resolve", h.Resolve)
	rg.GET("/settings", h.GetSettings)
}

// UploadAsset stores a multipart "file" field, or the raw request body
// named by the name query parameter.
func (h *Handler) UploadAsset(c *gin.Context) {
	ctx := c.Request.Context()
	if err := access.Require(ctx, h.oracle, access.CapEdit); err != nil {
		h.fail(c, err)
		return
	}

	var (
		asset *models.Asset
		err   error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, ferr := c.FormFile("file")
		if ferr != nil {
			abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "missing file field")
			return
		}
		f, ferr := fh.Open()
		if ferr != nil {
			h.fail(c, ferr)
			return
		}
		defer f.Close()
		asset, err = h.assets.PutReader(ctx, f, models.AssetMeta{Name: fh.Filename, MimeType: declaredMime(fh.Header.Get("Content-Type"))})
	} else {
		meta := models.AssetMeta{Name: c.Query("name"), MimeType: declaredMime(c.GetHeader("Content-Type"))}
		asset, err = h.assets.PutReader(ctx, c.Request.Body, meta)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, ToAssetResponse(asset))
}

// declaredMime drops the generic binary type so the store sniffs content.
func declaredMime(ct string) string {
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}

func (h *Handler) ListAssets(c *gin.Context) {
	list, err := h.assets.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]AssetResponse, 0, len(list))
	for _, a := range list {
		out = append(out, ToAssetResponse(a))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) GetAsset(c *gin.Context) {
	a, err := h.assets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if a == nil {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "asset not found")
		return
	}
	c.Data(http.StatusOK, a.MimeType, a.Payload)
}

func (h *Handler) DisplayAsset(c *gin.Context) {
	uri := h.assets.ResolveToDisplayable(c.Request.Context(), c.Param("id"))
	if uri == "" {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "asset not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataURL": uri})
}

func (h *Handler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	opts := services.ManagedLinkOptions{
		Role:              models.Role(req.Role),
		Mode:              models.Mode(req.Mode),
		Label:             req.Label,
		AllowEdit:         req.AllowEdit,
		ShowRoleIndicator: req.ShowRoleIndicator,
		IncludeImages:     req.IncludeImages,
	}
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d < 0 {
			abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "invalid expiresIn")
			return
		}
		opts.ExpiresIn = &d
	}
	if req.Document != nil {
		opts.Document = document.NewMemory(req.Document, nil)
	}

	link, err := h.share.CreateManagedLink(c.Request.Context(), opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := ToLinkResponse(link.Link)
	resp.URL = link.URL
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) ListLinks(c *gin.Context) {
	list, err := h.share.ListLinks(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]LinkResponse, 0, len(list))
	for _, l := range list {
		out = append(out, ToLinkResponse(l))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) RevokeLink(c *gin.Context) {
	removed, err := h.share.RevokeLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !removed {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "link not found")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Embed(c *gin.Context) {
	var req EmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	opts := services.EmbeddedLinkOptions{
		Role:          models.Role(req.Role),
		Mode:          models.Mode(req.Mode),
		Label:         req.Label,
		IncludeImages: req.IncludeImages,
	}
	src := document.NewMemory(req.Document, nil)

	var (
		link *services.EmbeddedLink
		err  error
	)
	if req.Local {
		link, err = h.share.CreateLocalSnapshotLink(c.Request.Context(), opts, src)
	} else {
		link, err = h.share.CreateEmbeddedLink(c.Request.Context(), opts, src)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, EmbedResponse{
		ID:      link.ID,
		URL:     link.URL,
		Token:   link.Token,
		Length:  len(link.URL),
		Warning: link.Warning,
	})
}

// Resolve applies an inbound URL to the posted document and returns the
// outcome together with the resulting document.
func (h *Handler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ctx := c.Request.Context()
	sink := document.NewMemory(req.Document, nil)
	in, err := h.share.ResolveInboundURL(ctx, req.URL, sink)
	if err != nil && !isLinkRejection(err) {
		h.fail(c, err)
		return
	}
	doc, err := sink.Load(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := ResolveResponse{
		Outcome:           in.Outcome,
		Role:              in.Role,
		Mode:              in.Mode,
		Notice:            in.Notice,
		HideShareControls: in.HideShareControls,
		Document:          doc,
	}
	if in.Link != nil {
		l := ToLinkResponse(in.Link)
		resp.Link = &l
	}
	c.JSON(http.StatusOK, resp)
}

// isLinkRejection reports whether err only means the inbound link was
// unusable; the outcome and notice already describe it.
func isLinkRejection(err error) bool {
	return errors.Is(err, common.ErrLinkNotFound) ||
		errors.Is(err, common.ErrLinkExpired) ||
		errors.Is(err, common.ErrSnapshotDecode)
}

// GetSettings returns every settings document. The PIN hash is replaced
// by the pinSet flag.
func (h *Handler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	if err := access.Require(ctx, h.oracle, access.CapViewAdmin); err != nil {
		h.fail(c, err)
		return
	}

	admin, err := h.settings.AdminConfig(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	admin = maps.Clone(admin)
	pin, _ := admin["pin"].(string)
	delete(admin, "pin")

	pres, err := h.settings.PresentationConfig(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	features, err := h.settings.FeatureFlags(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	roles, err := h.settings.RoleTable(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, SettingsResponse{
		Admin:        admin,
		PINSet:       pin != "",
		Presentation: pres,
		Features:     features,
		Roles:        roles,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, common.ErrPermissionDenied):
		abortWithError(c, http.StatusForbidden, "FORBIDDEN", "permission denied")
	case errors.Is(err, common.ErrInvalidAssetID):
		abortWithError(c, http.StatusBadRequest, "INVALID_ASSET_ID", "invalid asset id")
	case errors.Is(err, common.ErrAssetTooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, "ASSET_TOO_LARGE", err.Error())
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrLinkNotFound):
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, common.ErrStorageFull):
		abortWithError(c, http.StatusInsufficientStorage, "STORAGE_FULL", "storage is full")
	default:
		abortWithError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	c.AbortWithStatusJSON(status, body)
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/blobstore"
	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/imaging"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/repositories/assets"
	"github.com/dmitrijs2005/sharevault/internal/repositories/links"
	"github.com/dmitrijs2005/sharevault/internal/repositories/metadata"
	"github.com/dmitrijs2005/sharevault/internal/repositories/snapshots"
	"github.com/dmitrijs2005/sharevault/internal/services"
	"github.com/dmitrijs2005/sharevault/internal/snapshot"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, services.Settings) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := dbx.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)

	log := logging.Discard()
	clk := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	oracle := access.NewStaticOracle(models.RoleAdmin, nil)

	store := services.NewAssetStore(assets.NewSQLiteRepository(db), blobs, clk, log, 1024)
	registry := services.NewLinkRegistry(db, links.NewSQLiteRepository(db, log), clk, log, 30*24*time.Hour)
	settings := services.NewSettings(db, metadata.NewSQLiteRepository(db), clk, log, 5)
	share := services.NewShareService(services.ShareDeps{
		Links:     registry,
		Codec:     snapshot.New(snapshot.WithCompression()),
		Images:    imaging.NewCompressor(log),
		Assets:    store,
		Snapshots: snapshots.NewSQLiteRepository(db, clk),
		Oracle:    oracle,
		Clock:     clk,
		Log:       log,
	}, services.ShareConfig{
		BaseURL:           "https://deck.example.com/proposal",
		DefaultExpiry:     7 * 24 * time.Hour,
		MaxURLLength:      1800,
		ImageMaxDimension: 64,
		ImageQuality:      72,
	})

	return NewRouter(NewHandler(store, share, settings, oracle), log), settings
}

func performRequest(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func uploadRaw(router *gin.Engine, name, contentType string, data []byte, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/assets?name="+name, bytes.NewReader(data))
	req.Header.Set("Content-Type", contentType)
	if role != "" {
		req.Header.Set(HeaderRole, role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAssets_UploadGetAndDisplay(t *testing.T) {
	router, _ := setupRouter(t)

	w := uploadRaw(router, "note.txt", "text/plain", []byte("hello"), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[AssetResponse](t, w)
	assert.Equal(t, services.ContentID([]byte("hello")), created.ID)
	assert.Equal(t, "note.txt", created.Name)
	assert.Equal(t, int64(5), created.Size)

	w = performRequest(router, http.MethodGet, "/api/assets/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))

	w = performRequest(router, http.MethodGet, "/api/assets/"+created.ID+"/display", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	display := decode[map[string]string](t, w)
	assert.Equal(t, "data:text/plain;base64,aGVsbG8=", display["dataURL"])

	w = performRequest(router, http.MethodGet, "/api/assets", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]AssetResponse](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}

func TestAssets_UploadMultipart(t *testing.T) {
	router, _ := setupRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "logo.svg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("<svg/>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/assets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "logo.svg", decode[AssetResponse](t, w).Name)
}

func TestAssets_Errors(t *testing.T) {
	router, _ := setupRouter(t)

	w := uploadRaw(router, "x", "text/plain", []byte("x"), "client")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode[errorBody](t, w).Error.Code)

	w = uploadRaw(router, "big", "text/plain", bytes.Repeat([]byte("a"), 2048), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	missing := strings.Repeat("0", 64)
	w = performRequest(router, http.MethodGet, "/api/assets/"+missing, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, "/api/assets/"+missing+"/display", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLinks_CreateListRevoke(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/api/links", CreateLinkRequest{
		Role:      "client",
		Mode:      "presentation",
		ExpiresIn: "48h",
		Label:     "Smith kitchen",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[LinkResponse](t, w)
	assert.True(t, strings.HasPrefix(created.ID, "sl_"))
	assert.Contains(t, created.URL, "share="+created.ID)
	assert.Equal(t, "Smith kitchen", created.Label)
	assert.Equal(t, 48*time.Hour, created.ExpiresAt.Sub(created.CreatedAt))

	w = performRequest(router, http.MethodGet, "/api/links", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[[]LinkResponse](t, w), 1)

	w = performRequest(router, http.MethodDelete, "/api/links/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(router, http.MethodDelete, "/api/links/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLinks_ZeroExpiryIsKept(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/api/links", CreateLinkRequest{ExpiresIn: "0s"}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[LinkResponse](t, w)
	assert.True(t, created.ExpiresAt.Equal(created.CreatedAt))

	w = performRequest(router, http.MethodPost, "/api/links", CreateLinkRequest{}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created = decode[LinkResponse](t, w)
	assert.Greater(t, created.ExpiresAt.Sub(created.CreatedAt), time.Hour)
}

func TestLinks_Validation(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/api/links", CreateLinkRequest{ExpiresIn: "soon"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPost, "/api/links", CreateLinkRequest{}, map[string]string{HeaderRole: "client"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = performRequest(router, http.MethodGet, "/api/links?role=client", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestResolve_ManagedLink(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/api/links", CreateLinkRequest{
		Role:     "agent",
		Mode:     "edit",
		Document: &models.Document{FormData: map[string]any{"title": "Kitchen"}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[LinkResponse](t, w)

	w = performRequest(router, http.MethodPost, "/api/resolve", ResolveRequest{URL: created.URL}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ResolveResponse](t, w)
	assert.Equal(t, services.OutcomeManagedLinkApplied, res.Outcome)
	assert.Equal(t, models.RoleAgent, res.Role)
	require.NotNil(t, res.Link)
	assert.Equal(t, int64(1), res.Link.AccessCount)
	assert.Equal(t, "Kitchen", res.Document.FormData["title"])

	w = performRequest(router, http.MethodPost, "/api/resolve",
		ResolveRequest{URL: "https://deck.example.com/proposal?share=sl_missing"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[ResolveResponse](t, w)
	assert.Equal(t, services.OutcomeNone, res.Outcome)
	assert.Equal(t, "Link not found", res.Notice)

	w = performRequest(router, http.MethodPost, "/api/resolve", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmbed_RoundTripThroughResolve(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodPost, "/api/embed", EmbedRequest{
		Role:     "client",
		Document: &models.Document{FormData: map[string]any{"customer": "Café Ltd"}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	embed := decode[EmbedResponse](t, w)
	assert.Contains(t, embed.URL, "#snapshot=")
	assert.Equal(t, len(embed.URL), embed.Length)
	assert.NotEmpty(t, embed.Token)

	w = performRequest(router, http.MethodPost, "/api/resolve", ResolveRequest{
		URL:      embed.URL,
		Document: &models.Document{FormData: map[string]any{"notes": "keep"}},
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ResolveResponse](t, w)
	assert.Equal(t, services.OutcomeSnapshotApplied, res.Outcome)
	assert.Equal(t, "Café Ltd", res.Document.FormData["customer"])
	assert.Equal(t, "keep", res.Document.FormData["notes"])

	w = performRequest(router, http.MethodPost, "/api/embed", EmbedRequest{
		Local:    true,
		Document: &models.Document{FormData: map[string]any{"a": "b"}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	local := decode[EmbedResponse](t, w)
	assert.True(t, strings.HasSuffix(local.URL, "#share="+local.ID))

	w = performRequest(router, http.MethodPost, "/api/embed", EmbedRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings_RedactsPIN(t *testing.T) {
	router, settings := setupRouter(t)
	require.NoError(t, settings.SetPIN(context.Background(), "1234"))

	w := performRequest(router, http.MethodGet, "/api/settings", nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[SettingsResponse](t, w)
	assert.True(t, res.PINSet)
	assert.NotContains(t, res.Admin, "pin")
	assert.NotContains(t, w.Body.String(), "argon2id")
	assert.Equal(t, true, res.Features["shareLinks"])
	assert.Contains(t, res.Roles[models.RoleAdmin], access.CapViewAdmin)

	w = performRequest(router, http.MethodGet, "/api/settings", nil, map[string]string{HeaderRole: "agent"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequestID(t *testing.T) {
	router, _ := setupRouter(t)

	w := performRequest(router, http.MethodGet, "/api/assets", nil, nil)
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)

	w = performRequest(router, http.MethodGet, "/api/assets", nil, map[string]string{HeaderRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(HeaderRequestID))
}

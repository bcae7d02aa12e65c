package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/repositories/snapshots"
	"github.com/dmitrijs2005/sharevault/internal/shared"
	"golang.org/x/sync/errgroup"
)

// SnapshotCodec converts snapshots to URL tokens and back.
type SnapshotCodec interface {
	Encode(s *models.Snapshot) (string, error)
	Decode(token string) (*models.Snapshot, error)
}

// ImageCompressor shrinks inline images. It must return src on failure.
type ImageCompressor interface {
	CompressSource(ctx context.Context, src string, maxDimensionPx, quality int) string
}

// ShareConfig holds the tunables of ShareService.
type ShareConfig struct {
	BaseURL           string
	DefaultExpiry     time.Duration
	MaxURLLength      int
	ImageMaxDimension int
	ImageQuality      int
}

// ShareDeps lists the collaborators of ShareService.
type ShareDeps struct {
	Links     LinkRegistry
	Codec     SnapshotCodec
	Images    ImageCompressor
	Assets    AssetStore
	Snapshots snapshots.Repository
	Oracle    access.Oracle
	Clock     clock.Clock
	Log       logging.Logger
}

// ManagedLinkOptions configures CreateManagedLink. Zero values select the
// defaults: client role, presentation mode, the configured expiry.
type ManagedLinkOptions struct {
	Role models.Role
	Mode models.Mode
	// ExpiresIn is the link lifetime. Nil selects the configured default;
	// an explicit zero issues a link that expires at once.
	ExpiresIn         *time.Duration
	Label             string
	AllowEdit         bool
	ShowRoleIndicator bool

	// Document, when set, is snapshotted into the link payload.
	Document      document.Source
	IncludeImages bool
}

// ManagedLink is a registered link and its URL.
type ManagedLink struct {
	ID   string
	URL  string
	Link *models.ShareLink
}

// EmbeddedLinkOptions configures snapshot links.
type EmbeddedLinkOptions struct {
	Role          models.Role
	Mode          models.Mode
	Label         string
	IncludeImages bool
}

// EmbeddedLink is a self-contained snapshot URL. ID is set only for links
// using the local #share= scheme. Warning is non-empty when the URL is
// longer than common clients accept.
type EmbeddedLink struct {
	ID       string
	URL      string
	Token    string
	Snapshot *models.Snapshot
	Warning  string
}

// Outcome tells what ResolveInboundURL did.
type Outcome string

const (
	OutcomeNone               Outcome = "none"
	OutcomeSnapshotApplied    Outcome = "snapshotApplied"
	OutcomeManagedLinkApplied Outcome = "managedLinkApplied"
)

// Inbound describes how an incoming URL was handled. Notice is a short
// message for the viewer, for success and failure alike.
type Inbound struct {
	Outcome           Outcome
	Role              models.Role
	Mode              models.Mode
	Notice            string
	HideShareControls bool
	Link              *models.ShareLink
	Snapshot          *models.Snapshot
}

// ShareService builds share links and applies inbound ones.
type ShareService interface {
	CreateManagedLink(ctx context.Context, opts ManagedLinkOptions) (*ManagedLink, error)
	CreateEmbeddedLink(ctx context.Context, opts EmbeddedLinkOptions, src document.Source) (*EmbeddedLink, error)
	CreateLocalSnapshotLink(ctx context.Context, opts EmbeddedLinkOptions, src document.Source) (*EmbeddedLink, error)
	ResolveInboundURL(ctx context.Context, rawURL string, sink document.Sink) (*Inbound, error)
	RevokeLink(ctx context.Context, id string) (bool, error)
	ListLinks(ctx context.Context) ([]*models.ShareLink, error)
	ViewerContext(rawURL string) access.Viewer
}

type shareService struct {
	ShareDeps
	cfg ShareConfig
}

func NewShareService(deps ShareDeps, cfg ShareConfig) ShareService {
	return &shareService{ShareDeps: deps, cfg: cfg}
}

const (
	snapshotIDBytes    = 16
	imageCompressLimit = 4
)

func (s *shareService) CreateManagedLink(ctx context.Context, opts ManagedLinkOptions) (*ManagedLink, error) {
	if err := access.Require(ctx, s.Oracle, access.CapShare); err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}

	role, mode := defaultRoleMode(opts.Role, opts.Mode)
	expiresIn := s.cfg.DefaultExpiry
	if opts.ExpiresIn != nil {
		expiresIn = *opts.ExpiresIn
	}

	var payload *models.Snapshot
	if opts.Document != nil {
		snap, err := s.buildSnapshot(ctx, opts.Document, role, mode, opts.Label, opts.IncludeImages)
		if err != nil {
			return nil, err
		}
		payload = snap
	}

	l, err := s.Links.Create(ctx, models.LinkConfig{
		Role:              role,
		Mode:              mode,
		ExpiresIn:         expiresIn,
		Label:             opts.Label,
		CreatedBy:         s.Oracle.CurrentRole(ctx),
		AllowEdit:         opts.AllowEdit,
		ShowRoleIndicator: opts.ShowRoleIndicator,
		Payload:           payload,
	})
	if err != nil {
		return nil, err
	}

	u, err := s.baseURL()
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set(common.ParamShare, l.ID)
	q.Set(common.ParamRole, string(role))
	q.Set(common.ParamMode, string(mode))
	if opts.ShowRoleIndicator {
		q.Set(common.ParamShowRoleIndicator, "true")
	}
	u.RawQuery = q.Encode()

	return &ManagedLink{ID: l.ID, URL: u.String(), Link: l}, nil
}

func (s *shareService) CreateEmbeddedLink(ctx context.Context, opts EmbeddedLinkOptions, src document.Source) (*EmbeddedLink, error) {
	if err := access.Require(ctx, s.Oracle, access.CapShare); err != nil {
		return nil, fmt.Errorf("create embed link: %w", err)
	}

	role, mode := defaultRoleMode(opts.Role, opts.Mode)
	snap, err := s.buildSnapshot(ctx, src, role, mode, opts.Label, opts.IncludeImages)
	if err != nil {
		return nil, err
	}
	token, err := s.Codec.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("create embed link: %w", err)
	}

	full, err := s.fragmentURL(role, mode, common.FragmentSnapshot, token)
	if err != nil {
		return nil, err
	}

	link := &EmbeddedLink{URL: full, Token: token, Snapshot: snap}
	if s.cfg.MaxURLLength > 0 && len(full) > s.cfg.MaxURLLength {
		link.Warning = fmt.Sprintf("link is long (%d chars), some apps may truncate it", len(full))
		s.Log.Warn(ctx, "embedded link exceeds recommended length", "length", len(full), "limit", s.cfg.MaxURLLength)
	}
	return link, nil
}

func (s *shareService) CreateLocalSnapshotLink(ctx context.Context, opts EmbeddedLinkOptions, src document.Source) (*EmbeddedLink, error) {
	if err := access.Require(ctx, s.Oracle, access.CapShare); err != nil {
		return nil, fmt.Errorf("create snapshot link: %w", err)
	}

	role, mode := defaultRoleMode(opts.Role, opts.Mode)
	snap, err := s.buildSnapshot(ctx, src, role, mode, opts.Label, opts.IncludeImages)
	if err != nil {
		return nil, err
	}
	token, err := s.Codec.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("create snapshot link: %w", err)
	}

	id, err := shared.RandomHex(snapshotIDBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating snapshot id: %w", err)
	}
	if err := s.Snapshots.Insert(ctx, id, token); err != nil {
		return nil, fmt.Errorf("error saving snapshot: %w", err)
	}

	full, err := s.fragmentURL(role, mode, common.FragmentShare, id)
	if err != nil {
		return nil, err
	}
	return &EmbeddedLink{ID: id, URL: full, Token: token, Snapshot: snap}, nil
}

// ResolveInboundURL tries the fragment first and then the share query
// parameter. A fragment that fails to apply does not stop the managed link
// from being tried; its notice and error are reported only when no managed
// link succeeds either.
func (s *shareService) ResolveInboundURL(ctx context.Context, rawURL string, sink document.Sink) (*Inbound, error) {
	// The fragment is split off by hand so a bad escape in it still
	// reaches the codec and is reported.
	base, fragment, _ := strings.Cut(strings.TrimSpace(rawURL), "#")

	var (
		failed  *Inbound
		fragErr error
	)
	if key, value, ok := strings.Cut(fragment, "="); ok && value != "" {
		var in *Inbound
		switch key {
		case common.FragmentSnapshot:
			in, fragErr = s.applyToken(ctx, value, sink)
		case common.FragmentShare:
			in, fragErr = s.applyLocalSnapshot(ctx, value, sink)
		}
		if in != nil && fragErr == nil {
			return in, nil
		}
		failed = in
	}

	if id := shareParam(base); id != "" {
		in, err := s.applyManagedLink(ctx, id, sink)
		if err == nil || failed == nil {
			return in, err
		}
		return failed, errors.Join(fragErr, err)
	}

	if failed != nil {
		return failed, fragErr
	}
	return &Inbound{Outcome: OutcomeNone}, nil
}

func shareParam(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	return u.Query().Get(common.ParamShare)
}

func (s *shareService) applyToken(ctx context.Context, token string, sink document.Sink) (*Inbound, error) {
	snap, err := s.Codec.Decode(token)
	if err != nil {
		s.Log.Warn(ctx, "inbound snapshot rejected", "error", err)
		return &Inbound{Outcome: OutcomeNone, Notice: "Invalid snapshot link"}, err
	}
	return s.applySnapshot(ctx, snap, sink)
}

func (s *shareService) applyLocalSnapshot(ctx context.Context, id string, sink document.Sink) (*Inbound, error) {
	if !shared.IsHexString(id, snapshotIDBytes*2) {
		return &Inbound{Outcome: OutcomeNone, Notice: "Invalid snapshot link"},
			fmt.Errorf("%w: malformed snapshot id", common.ErrSnapshotDecode)
	}

	token, err := s.Snapshots.GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return &Inbound{Outcome: OutcomeNone, Notice: "Link not found"}, common.ErrLinkNotFound
	}
	if err != nil {
		return &Inbound{Outcome: OutcomeNone}, fmt.Errorf("error loading snapshot: %w", err)
	}
	return s.applyToken(ctx, token, sink)
}

func (s *shareService) applySnapshot(ctx context.Context, snap *models.Snapshot, sink document.Sink) (*Inbound, error) {
	role := models.RoleOr(string(snap.Role), models.RoleClient)
	mode := models.ModeOr(string(snap.Mode), models.ModePresentation)

	err := sink.Apply(ctx, models.Document{Role: role, Mode: mode, FormData: snap.FormData, Images: snap.Images})
	if err != nil {
		s.Log.Warn(ctx, "applying snapshot failed", "error", err)
		return &Inbound{Outcome: OutcomeNone, Notice: "Failed to load embedded snapshot"}, fmt.Errorf("apply snapshot: %w", err)
	}

	return &Inbound{
		Outcome:  OutcomeSnapshotApplied,
		Role:     role,
		Mode:     mode,
		Notice:   fmt.Sprintf("Loaded embedded %s snapshot", role),
		Snapshot: snap,
	}, nil
}

func (s *shareService) applyManagedLink(ctx context.Context, id string, sink document.Sink) (*Inbound, error) {
	res := s.Links.Resolve(ctx, id)
	if !res.Valid {
		if res.Reason == models.ReasonExpired {
			return &Inbound{Outcome: OutcomeNone, Notice: "Link has expired"}, common.ErrLinkExpired
		}
		return &Inbound{Outcome: OutcomeNone, Notice: "Link not found"}, common.ErrLinkNotFound
	}

	l := res.Link
	update := models.Document{Role: l.Role, Mode: l.Mode}
	if l.Payload != nil {
		update.FormData = l.Payload.FormData
		update.Images = l.Payload.Images
	}
	if err := sink.Apply(ctx, update); err != nil {
		return &Inbound{Outcome: OutcomeNone}, fmt.Errorf("apply share link: %w", err)
	}

	return &Inbound{
		Outcome:           OutcomeManagedLinkApplied,
		Role:              l.Role,
		Mode:              l.Mode,
		Notice:            fmt.Sprintf("Viewing as %s in %s mode", l.Role, l.Mode),
		HideShareControls: true,
		Link:              l,
	}, nil
}

func (s *shareService) RevokeLink(ctx context.Context, id string) (bool, error) {
	if err := access.Require(ctx, s.Oracle, access.CapShare); err != nil {
		return false, fmt.Errorf("revoke share link: %w", err)
	}
	return s.Links.Revoke(ctx, id)
}

func (s *shareService) ListLinks(ctx context.Context) ([]*models.ShareLink, error) {
	if err := access.Require(ctx, s.Oracle, access.CapShare); err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	return s.Links.List(ctx)
}

func (s *shareService) ViewerContext(rawURL string) access.Viewer {
	return access.ViewerFromURL(rawURL)
}

func (s *shareService) buildSnapshot(ctx context.Context, src document.Source, role models.Role, mode models.Mode, label string, includeImages bool) (*models.Snapshot, error) {
	doc, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading document: %w", err)
	}

	now := s.Clock.Now()
	if label == "" {
		label = fmt.Sprintf("%s snapshot %s", role, now.Format(linkLabelLayout))
	}

	snap := &models.Snapshot{
		Version:   models.SnapshotVersion,
		CreatedAt: now.UnixMilli(),
		Role:      role,
		Mode:      mode,
		Label:     label,
		FormData:  doc.FormData,
	}
	if snap.FormData == nil {
		snap.FormData = map[string]any{}
	}

	if includeImages {
		images, err := s.flattenImages(ctx, doc.Images)
		if err != nil {
			return nil, err
		}
		snap.Images = images
	}
	return snap, nil
}

// flattenImages resolves asset references to inline data and compresses
// every image concurrently. Empty values stay empty.
func (s *shareService) flattenImages(ctx context.Context, images map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(images))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageCompressLimit)
	for key, src := range images {
		if src == "" {
			mu.Lock()
			out[key] = ""
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			resolved := src
			if strings.HasPrefix(src, common.AssetScheme) && s.Assets != nil {
				resolved = s.Assets.ResolveImageSource(gctx, src)
				if resolved == "" {
					s.Log.Warn(gctx, "image asset could not be resolved, leaving it empty", "image", key, "ref", src)
				}
			}
			if resolved != "" {
				resolved = s.Images.CompressSource(gctx, resolved, s.cfg.ImageMaxDimension, s.cfg.ImageQuality)
			}

			mu.Lock()
			out[key] = resolved
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error preparing images: %w", err)
	}
	return out, nil
}

func (s *shareService) baseURL() (*url.URL, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", s.cfg.BaseURL, err)
	}
	u.Fragment = ""
	return u, nil
}

func (s *shareService) fragmentURL(role models.Role, mode models.Mode, key, value string) (string, error) {
	u, err := s.baseURL()
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(common.ParamRole, string(role))
	q.Set(common.ParamMode, string(mode))
	u.RawQuery = q.Encode()
	u.Fragment = key + "=" + value
	return u.String(), nil
}

func defaultRoleMode(role models.Role, mode models.Mode) (models.Role, models.Mode) {
	return models.RoleOr(string(role), models.RoleClient), models.ModeOr(string(mode), models.ModePresentation)
}

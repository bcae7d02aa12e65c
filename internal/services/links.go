package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/repositories/links"
	"github.com/dmitrijs2005/sharevault/internal/shared"
)

const (
	linkIDPrefix    = "sl_"
	linkIDBytes     = 16
	linkIDAttempts  = 3
	linkLabelLayout = "2006-01-02"
)

// LinkRegistry keeps locally registered, revocable share links.
type LinkRegistry interface {
	Create(ctx context.Context, cfg models.LinkConfig) (*models.ShareLink, error)

	// Resolve validates id and records the access. Expired links are
	// removed as they are found.
	Resolve(ctx context.Context, id string) models.Resolution

	// Revoke reports whether a link was removed.
	Revoke(ctx context.Context, id string) (bool, error)

	List(ctx context.Context) ([]*models.ShareLink, error)
	SweepExpired(ctx context.Context) (int, error)

	// RunSweeper calls SweepExpired every interval until ctx is done.
	RunSweeper(ctx context.Context, interval time.Duration)
}

type linkRegistry struct {
	db          *sql.DB
	repo        links.Repository
	clock       clock.Clock
	log         logging.Logger
	maxLifetime time.Duration
}

func NewLinkRegistry(db *sql.DB, repo links.Repository, clk clock.Clock, log logging.Logger, maxLifetime time.Duration) LinkRegistry {
	return &linkRegistry{db: db, repo: repo, clock: clk, log: log, maxLifetime: maxLifetime}
}

func (r *linkRegistry) Create(ctx context.Context, cfg models.LinkConfig) (*models.ShareLink, error) {
	now := r.clock.Now().UTC()

	expiresIn := cfg.ExpiresIn
	if expiresIn < 0 {
		expiresIn = 0
	}
	if r.maxLifetime > 0 && expiresIn > r.maxLifetime {
		expiresIn = r.maxLifetime
	}

	l := &models.ShareLink{
		CreatedAt:         now,
		ExpiresAt:         now.Add(expiresIn),
		CreatedBy:         cfg.CreatedBy,
		Role:              cfg.Role,
		Mode:              cfg.Mode,
		Label:             cfg.Label,
		AllowEdit:         cfg.AllowEdit,
		ShowRoleIndicator: cfg.ShowRoleIndicator,
		Payload:           cfg.Payload,
	}
	if l.CreatedBy == "" {
		l.CreatedBy = models.RoleAdmin
	}
	if l.Label == "" {
		l.Label = fmt.Sprintf("%s link created %s", l.Role, now.Format(linkLabelLayout))
	}

	for attempt := 1; ; attempt++ {
		id, err := shared.NewID(linkIDPrefix, linkIDBytes)
		if err != nil {
			return nil, fmt.Errorf("error generating link id: %w", err)
		}
		l.ID = id

		err = r.repo.Insert(ctx, l)
		if err == nil {
			break
		}
		if !errors.Is(err, links.ErrDuplicateID) || attempt == linkIDAttempts {
			return nil, fmt.Errorf("error saving link: %w", err)
		}
		r.log.Warn(ctx, "share link id collision, retrying", "attempt", attempt)
	}

	r.log.Info(ctx, "share link created", "id", l.ID, "role", l.Role, "mode", l.Mode, "expires_at", l.ExpiresAt)
	return l, nil
}

func (r *linkRegistry) Resolve(ctx context.Context, id string) models.Resolution {
	now := r.clock.Now().UTC()

	var res models.Resolution
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := r.repo.WithTx(tx)

		l, err := repo.GetByID(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			res = models.Resolution{Reason: models.ReasonNotFound}
			return nil
		}
		if err != nil {
			return err
		}

		if l.Expired(now) {
			if _, err := repo.DeleteByID(ctx, id); err != nil {
				return err
			}
			res = models.Resolution{Reason: models.ReasonExpired}
			return nil
		}

		if err := repo.RecordAccess(ctx, id, now); err != nil {
			return err
		}
		l.AccessCount++
		l.LastAccessed = &now
		res = models.Resolution{Valid: true, Link: l}
		return nil
	})
	if err != nil {
		// Storage failures look like a missing link to the viewer.
		r.log.Error(ctx, "share link resolve failed", "id", id, "error", err)
		return models.Resolution{Reason: models.ReasonNotFound}
	}

	if res.Valid {
		if n, err := r.repo.DeleteExpired(ctx, now); err != nil {
			r.log.Warn(ctx, "opportunistic sweep failed", "error", err)
		} else if n > 0 {
			r.log.Debug(ctx, "expired share links removed", "count", n)
		}
	}
	return res
}

func (r *linkRegistry) Revoke(ctx context.Context, id string) (bool, error) {
	ok, err := r.repo.DeleteByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("error revoking link: %w", err)
	}
	if ok {
		r.log.Info(ctx, "share link revoked", "id", id)
	}
	return ok, nil
}

func (r *linkRegistry) List(ctx context.Context) ([]*models.ShareLink, error) {
	list, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing links: %w", err)
	}
	now := r.clock.Now()
	for _, l := range list {
		l.IsExpired = l.Expired(now)
	}
	return list, nil
}

func (r *linkRegistry) SweepExpired(ctx context.Context) (int, error) {
	n, err := r.repo.DeleteExpired(ctx, r.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("error sweeping links: %w", err)
	}
	return n, nil
}

func (r *linkRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	t := r.clock.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := r.SweepExpired(ctx)
			if err != nil {
				r.log.Warn(ctx, "share link sweep failed", "error", err)
				continue
			}
			if n > 0 {
				r.log.Info(ctx, "expired share links removed", "count", n)
			}
		}
	}
}

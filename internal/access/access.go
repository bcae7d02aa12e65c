// Package access answers "may the current viewer do X" for the share
// layer. The policy is a plain role to capability table; the role in
// effect travels in the context.
package access

import (
	"context"
	"net/url"
	"slices"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

// Capability is a single permission the share layer asks about.
type Capability string

const (
	CapEdit      Capability = "edit"
	CapExport    Capability = "export"
	CapShare     Capability = "share"
	CapViewAdmin Capability = "viewAdmin"
)

// Oracle reports the viewer's role and capabilities.
type Oracle interface {
	CurrentRole(ctx context.Context) models.Role
	Can(ctx context.Context, c Capability) bool
}

// Table maps each role to the capabilities it holds.
type Table map[models.Role][]Capability

// DefaultTable grants admins everything, agents everything but the admin
// console, and clients nothing beyond viewing.
func DefaultTable() Table {
	return Table{
		models.RoleAdmin:  {CapEdit, CapExport, CapShare, CapViewAdmin},
		models.RoleAgent:  {CapEdit, CapExport, CapShare},
		models.RoleClient: {},
	}
}

type roleKey struct{}

// WithRole returns a context carrying role.
func WithRole(ctx context.Context, role models.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

// RoleFromContext returns the role stored by WithRole.
func RoleFromContext(ctx context.Context) (models.Role, bool) {
	r, ok := ctx.Value(roleKey{}).(models.Role)
	return r, ok
}

// StaticOracle resolves the role from the context, falling back to a fixed
// default, and looks capabilities up in a Table.
type StaticOracle struct {
	def   models.Role
	table Table
}

// NewStaticOracle returns an oracle using table, or DefaultTable when nil.
func NewStaticOracle(def models.Role, table Table) *StaticOracle {
	if table == nil {
		table = DefaultTable()
	}
	return &StaticOracle{def: def, table: table}
}

func (o *StaticOracle) CurrentRole(ctx context.Context) models.Role {
	if r, ok := RoleFromContext(ctx); ok {
		return r
	}
	return o.def
}

func (o *StaticOracle) Can(ctx context.Context, c Capability) bool {
	return slices.Contains(o.table[o.CurrentRole(ctx)], c)
}

// Require returns common.ErrPermissionDenied unless o grants c.
func Require(ctx context.Context, o Oracle, c Capability) error {
	if o.Can(ctx, c) {
		return nil
	}
	return common.ErrPermissionDenied
}

// Viewer is the role and mode requested by a document URL.
type Viewer struct {
	Role              models.Role
	Mode              models.Mode
	ShowRoleIndicator bool
}

// ViewerFromURL reads role, mode and showRoleIndicator from the query of
// rawURL. Missing or unknown values default to admin and edit.
func ViewerFromURL(rawURL string) Viewer {
	v := Viewer{Role: models.RoleAdmin, Mode: models.ModeEdit}
	u, err := url.Parse(rawURL)
	if err != nil {
		return v
	}
	q := u.Query()
	v.Role = models.RoleOr(q.Get(common.ParamRole), v.Role)
	v.Mode = models.ModeOr(q.Get(common.ParamMode), v.Mode)
	v.ShowRoleIndicator = q.Get(common.ParamShowRoleIndicator) == "true"
	return v
}

package access

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestStaticOracle_DefaultTable(t *testing.T) {
	o := NewStaticOracle(models.RoleAdmin, nil)
	ctx := context.Background()

	assert.Equal(t, models.RoleAdmin, o.CurrentRole(ctx))
	for _, c := range []Capability{CapEdit, CapExport, CapShare, CapViewAdmin} {
		assert.True(t, o.Can(ctx, c), c)
	}

	agent := WithRole(ctx, models.RoleAgent)
	assert.True(t, o.Can(agent, CapShare))
	assert.False(t, o.Can(agent, CapViewAdmin))

	client := WithRole(ctx, models.RoleClient)
	assert.Equal(t, models.RoleClient, o.CurrentRole(client))
	assert.False(t, o.Can(client, CapShare))
	assert.False(t, o.Can(client, CapEdit))
}

func TestStaticOracle_CustomTable(t *testing.T) {
	o := NewStaticOracle(models.RoleClient, Table{models.RoleClient: {CapExport}})
	ctx := context.Background()

	assert.True(t, o.Can(ctx, CapExport))
	assert.False(t, o.Can(ctx, CapShare))
	assert.False(t, o.Can(WithRole(ctx, models.RoleAdmin), CapShare), "roles missing from the table hold nothing")
}

func TestRequire(t *testing.T) {
	o := NewStaticOracle(models.RoleClient, nil)
	assert.ErrorIs(t, Require(context.Background(), o, CapShare), common.ErrPermissionDenied)
	assert.NoError(t, Require(WithRole(context.Background(), models.RoleAgent), o, CapShare))
}

func TestViewerFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want Viewer
	}{
		{"https://x.test/doc", Viewer{Role: models.RoleAdmin, Mode: models.ModeEdit}},
		{"https://x.test/doc?role=client&mode=present", Viewer{Role: models.RoleClient, Mode: models.ModePresentation}},
		{"https://x.test/doc?role=agent&mode=presentation&showRoleIndicator=true", Viewer{Role: models.RoleAgent, Mode: models.ModePresentation, ShowRoleIndicator: true}},
		{"https://x.test/doc?role=ceo&mode=fly", Viewer{Role: models.RoleAdmin, Mode: models.ModeEdit}},
		{"::not a url", Viewer{Role: models.RoleAdmin, Mode: models.ModeEdit}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ViewerFromURL(tc.url), tc.url)
	}
}

package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
	"github.com/MrSnakeDoc/qrcard/internal/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	reg := registry.New(nil, logger.NewNop())
	return NewService(store, reg, logger.NewNop()), store
}

func keys(links []domain.Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Platform)
	}
	return out
}

func TestSnapshotOfUnknownOwnerIsEmpty(t *testing.T) {
	svc, _ := newService(t)

	snap, err := svc.Snapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Len())
}

func TestApplyEdits(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	snap, err := svc.Apply(ctx, "alice", []Edit{
		{Op: OpAdd, Platform: "instagram", Value: "alice"},
		{Op: OpAdd, Platform: "facebook", Value: "https://facebook.com/alice"},
		{Op: OpAdd, Platform: "tiktok", Value: "@alice"},
		{Op: OpAdd, Platform: "whatsapp", Value: "+1 (202) 555-0143"},
		{Op: OpMove, Section: "social", Platform: "facebook", Before: "instagram"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"facebook", "instagram", "tiktok"}, keys(snap[domain.CategorySocial]))
	require.Len(t, snap[domain.CategoryContact], 1)
	assert.Equal(t, "https://wa.me/12025550143", snap[domain.CategoryContact][0].Link)

	stored, err := store.LoadDirectory(ctx, "alice")
	require.NoError(t, err)
	assert.Contains(t, string(stored), "https://wa.me/12025550143")

	snap, err = svc.Apply(ctx, "alice", []Edit{
		{Op: OpDelete, Section: "social", Platform: "tiktok"},
		{Op: OpDelete, Section: "contact", Platform: "whatsapp"},
		{Op: OpUndo, Section: "contact", Platform: "whatsapp"},
		{Op: OpMove, Section: "social", Platform: "instagram", To: "other"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"facebook"}, keys(snap[domain.CategorySocial]))
	assert.Equal(t, []string{"whatsapp"}, keys(snap[domain.CategoryContact]))
	assert.Equal(t, []string{"instagram"}, keys(snap[domain.CategoryOther]))
}

func TestApplyAbortsOnFailingEdit(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	_, err := svc.Apply(ctx, "alice", []Edit{
		{Op: OpAdd, Platform: "instagram", Value: "alice"},
		{Op: OpAdd, Platform: "facebook", Value: "not a url"},
	})

	var editErr *EditError
	require.True(t, errors.As(err, &editErr))
	assert.Equal(t, 1, editErr.Index)
	assert.Equal(t, OpAdd, editErr.Op)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "facebook", verr.PlatformID)
	assert.Equal(t, domain.ReasonInvalidURL, verr.Reason)

	stored, err := store.LoadDirectory(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, stored, "nothing may be saved from an aborted batch")
}

func TestApplyRejectsBadOps(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	tests := []struct {
		name string
		edit Edit
		want error
	}{
		{"unknown op", Edit{Op: "rename", Section: "social", Platform: "instagram"}, domain.ErrValidation},
		{"unknown platform", Edit{Op: OpAdd, Platform: "myspace", Value: "x"}, domain.ErrUnknownPlatform},
		{"delete without section", Edit{Op: OpDelete, Platform: "instagram"}, domain.ErrUnknownSection},
		{"delete missing", Edit{Op: OpDelete, Section: "social", Platform: "instagram"}, domain.ErrNotFound},
		{"move to unknown section", Edit{Op: OpMove, Section: "social", Platform: "instagram", To: "retro"}, domain.ErrUnknownSection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, "bob", []Edit{tt.edit})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLastCommitWins(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	first, err := svc.Open(ctx, "alice")
	require.NoError(t, err)
	second, err := svc.Open(ctx, "alice")
	require.NoError(t, err)

	_, err = first.AddOrReplace("", "instagram", "first")
	require.NoError(t, err)
	_, err = second.AddOrReplace("", "tiktok", "second")
	require.NoError(t, err)

	_, err = svc.Save(ctx, "alice", first)
	require.NoError(t, err)
	_, err = svc.Save(ctx, "alice", second)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"tiktok"}, keys(snap[domain.CategorySocial]))
}

func TestOwnerRequired(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Open(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.Save(context.Background(), "", domain.NewDirectory(nil))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

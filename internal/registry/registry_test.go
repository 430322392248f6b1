package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

type stubFetcher struct {
	platforms []domain.Platform
	err       error
}

func (s stubFetcher) FetchPlatforms(context.Context) ([]domain.Platform, error) {
	return s.platforms, s.err
}

func TestFallbackCoversEveryCategory(t *testing.T) {
	covered := make(map[domain.Category]bool)
	ids := make(map[string]bool)
	for _, p := range Fallback() {
		if ids[p.ID] {
			t.Errorf("duplicate fallback id %q", p.ID)
		}
		ids[p.ID] = true
		covered[p.Category] = true
	}
	for _, c := range domain.Categories {
		if !covered[c] {
			t.Errorf("fallback has no platform in %s", c)
		}
	}
}

func TestNewStartsWithFallback(t *testing.T) {
	r := New(nil, logger.NewNop())

	if r.Source() != SourceFallback {
		t.Errorf("Source() = %q, want fallback", r.Source())
	}
	if r.Count() != len(Fallback()) {
		t.Errorf("Count() = %d, want %d", r.Count(), len(Fallback()))
	}
	if _, ok := r.Find("whatsapp"); !ok {
		t.Error("Find(whatsapp) missing from fallback")
	}
}

func TestLoad(t *testing.T) {
	fetched := []domain.Platform{
		{ID: "signal", Title: "Signal", Category: domain.CategoryContact, Requirement: domain.RequirePhone},
		{ID: "mastodon", Title: "Mastodon", Category: domain.CategorySocial, Requirement: domain.RequireURL},
		{ID: "signal", Title: "Duplicate", Category: domain.CategoryOther},
	}

	tests := []struct {
		name       string
		fetcher    Fetcher
		wantSource Source
		wantCount  int
	}{
		{"fetch ok", stubFetcher{platforms: fetched}, SourceFetched, 2},
		{"fetch error", stubFetcher{err: errors.New("boom")}, SourceFallback, len(Fallback())},
		{"empty result", stubFetcher{}, SourceFallback, len(Fallback())},
		{"no fetcher", nil, SourceFallback, len(Fallback())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.fetcher, logger.NewNop())

			got := r.Load(context.Background())

			if len(got) == 0 {
				t.Fatal("Load() returned an empty catalog")
			}
			if len(got) != tt.wantCount {
				t.Errorf("Load() = %d platforms, want %d", len(got), tt.wantCount)
			}
			if r.Source() != tt.wantSource {
				t.Errorf("Source() = %q, want %q", r.Source(), tt.wantSource)
			}
			if r.LastReload().IsZero() {
				t.Error("LastReload() not set")
			}
		})
	}
}

func TestLoadKeepsFirstDuplicate(t *testing.T) {
	r := New(stubFetcher{platforms: []domain.Platform{
		{ID: "signal", Title: "Signal"},
		{ID: "signal", Title: "Duplicate"},
	}}, logger.NewNop())
	r.Load(context.Background())

	p, _ := r.Find("signal")
	if p.Title != "Signal" {
		t.Errorf("Find(signal) = %+v, want first entry", p)
	}
}

func TestReplaceIgnoresEmpty(t *testing.T) {
	r := New(nil, logger.NewNop())
	r.Replace([]domain.Platform{{ID: "only", Category: domain.CategoryOther}}, SourceCached)

	r.Replace(nil, SourceFetched)

	if r.Count() != 1 || r.Source() != SourceCached {
		t.Errorf("empty Replace() changed catalog: count=%d source=%q", r.Count(), r.Source())
	}
}

func TestAllReturnsCopy(t *testing.T) {
	r := New(nil, logger.NewNop())
	all := r.All()
	all[0].ID = "mutated"

	if r.All()[0].ID == "mutated" {
		t.Error("All() exposed internal slice")
	}
}

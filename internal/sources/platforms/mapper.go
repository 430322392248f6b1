package platforms

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

// Mapper converts catalog entries to domain platforms.
type Mapper struct{}

// NewMapper creates a new mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapPlatforms converts a catalog file into domain platforms. Entries with no
// id, an unknown category or an unknown requirement are skipped. Flat entries
// come first in file order, then grouped entries by category order.
func (m *Mapper) MapPlatforms(catalog *CatalogFile) ([]domain.Platform, error) {
	if catalog == nil {
		return nil, fmt.Errorf("no platforms found in catalog")
	}

	platforms := make([]domain.Platform, 0, len(catalog.Platforms))
	seen := make(map[string]bool)

	add := func(entry PlatformEntry, category string) {
		p, ok := mapEntry(entry, category)
		if !ok || seen[p.ID] {
			return
		}
		seen[p.ID] = true
		platforms = append(platforms, p)
	}

	for _, entry := range catalog.Platforms {
		add(entry, entry.Category)
	}

	groups := make([]string, 0, len(catalog.Categories))
	for name := range catalog.Categories {
		groups = append(groups, name)
	}
	sort.Slice(groups, func(i, j int) bool {
		ri, rj := categoryRank(groups[i]), categoryRank(groups[j])
		if ri != rj {
			return ri < rj
		}
		return groups[i] < groups[j]
	})
	for _, name := range groups {
		for _, entry := range catalog.Categories[name] {
			category := entry.Category
			if category == "" {
				category = name
			}
			add(entry, category)
		}
	}

	if len(platforms) == 0 {
		return nil, fmt.Errorf("no valid platforms found in catalog")
	}

	return platforms, nil
}

func mapEntry(entry PlatformEntry, category string) (domain.Platform, bool) {
	id := strings.ToLower(strings.TrimSpace(entry.ID))
	if id == "" {
		return domain.Platform{}, false
	}

	cat := domain.CategoryOther
	if category != "" {
		c, ok := domain.ParseCategory(strings.ToLower(strings.TrimSpace(category)))
		if !ok {
			return domain.Platform{}, false
		}
		cat = c
	}

	req, ok := domain.ParseRequirement(strings.ToLower(strings.TrimSpace(entry.Requires)))
	if !ok {
		return domain.Platform{}, false
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = id
	}

	return domain.Platform{
		ID:          id,
		Title:       title,
		Category:    cat,
		Requirement: req,
		URLTemplate: strings.TrimSpace(entry.Template),
	}, true
}

// categoryRank orders groups like the directory sections; unknown names sort
// last (and are then dropped by mapEntry).
func categoryRank(name string) int {
	for i, c := range domain.Categories {
		if strings.EqualFold(string(c), name) {
			return i
		}
	}
	return len(domain.Categories)
}

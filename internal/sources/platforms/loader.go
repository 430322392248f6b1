package platforms

import (
	"context"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
)

var templateVariable = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader reads and parses the platform catalog file.
type Loader struct {
	filePath string
	mapper   *Mapper
}

// NewLoader creates a loader for the given platforms.yaml path.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		mapper:   NewMapper(),
	}
}

// Path returns the file being loaded.
func (l *Loader) Path() string {
	return l.filePath
}

// Load reads and parses the catalog file.
func (l *Loader) Load() (*CatalogFile, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read platforms file: %w", err)
	}

	// Deployment tooling may leave {{VAR}} placeholders behind; they are not
	// meaningful to the catalog.
	data = stripTemplateVariables(data)

	var catalog CatalogFile
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse platforms yaml: %w", err)
	}

	return &catalog, nil
}

// FetchPlatforms implements registry.Fetcher.
func (l *Loader) FetchPlatforms(_ context.Context) ([]domain.Platform, error) {
	catalog, err := l.Load()
	if err != nil {
		return nil, err
	}
	return l.mapper.MapPlatforms(catalog)
}

// stripTemplateVariables replaces {{...}} placeholders with an empty string.
// Single-brace link placeholders such as {VALUE} are left alone.
func stripTemplateVariables(data []byte) []byte {
	return templateVariable.ReplaceAll(data, []byte(`""`))
}

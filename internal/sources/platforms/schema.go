package platforms

// CatalogFile is the root of platforms.yaml. Entries may be listed flat under
// "platforms" (each naming its category) or grouped under "categories", where
// the group name supplies the category.
type CatalogFile struct {
	Platforms  []PlatformEntry            `yaml:"platforms"`
	Categories map[string][]PlatformEntry `yaml:"categories"`
}

// PlatformEntry is one platform as written in YAML.
type PlatformEntry struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Category string `yaml:"category,omitempty"`
	Requires string `yaml:"requires,omitempty"`
	Template string `yaml:"template,omitempty"`
	Icon     string `yaml:"icon,omitempty"`
}

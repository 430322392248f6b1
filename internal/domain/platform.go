package domain

// Category is one of the eight fixed directory sections.
type Category string

const (
	CategorySocial  Category = "social"
	CategoryContact Category = "contact"
	CategoryPayment Category = "payment"
	CategoryVideo   Category = "video"
	CategoryMusic   Category = "music"
	CategoryDesign  Category = "design"
	CategoryGaming  Category = "gaming"
	CategoryOther   Category = "other"
)

// Categories lists every section in rendering order.
var Categories = []Category{
	CategorySocial,
	CategoryContact,
	CategoryPayment,
	CategoryVideo,
	CategoryMusic,
	CategoryDesign,
	CategoryGaming,
	CategoryOther,
}

// ParseCategory validates a section name.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Requirement describes what kind of raw value a platform expects.
type Requirement string

const (
	RequireNone     Requirement = "none"
	RequirePhone    Requirement = "phone"
	RequireURL      Requirement = "url"
	RequireFreetext Requirement = "freetext"
)

// ParseRequirement accepts the canonical names plus the "text" alias used by
// older catalogs. An empty string means no requirement.
func ParseRequirement(s string) (Requirement, bool) {
	switch s {
	case "", string(RequireNone):
		return RequireNone, true
	case string(RequirePhone):
		return RequirePhone, true
	case string(RequireURL):
		return RequireURL, true
	case string(RequireFreetext), "text":
		return RequireFreetext, true
	default:
		return "", false
	}
}

// Platform is an immutable catalog entry describing a link target.
type Platform struct {
	// ID is the unique key, e.g. "whatsapp".
	ID string `json:"id" yaml:"id"`

	// Title is the display name, e.g. "WhatsApp".
	Title string `json:"title" yaml:"title"`

	// Category is the default section new entries land in.
	Category Category `json:"category" yaml:"category"`

	// Requirement drives raw value validation.
	Requirement Requirement `json:"requirement" yaml:"requirement"`

	// URLTemplate may contain {VALUE} and/or {PHONE} placeholders.
	URLTemplate string `json:"url_template,omitempty" yaml:"url_template,omitempty"`
}

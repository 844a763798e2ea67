package app

import "strings"

// Category is a set of manifest flags
type Category uint8

const (
	CategorySystem Category = 1 << iota
	CategoryUser
	// CategoryHidden apps are started by other apps and never listed by
	// the launcher.
	CategoryHidden
)

// Has reports whether every flag in f is set
func (c Category) Has(f Category) bool {
	return c&f == f
}

// String returns the flags joined by "|"
func (c Category) String() string {
	var parts []string
	if c.Has(CategorySystem) {
		parts = append(parts, "system")
	}
	if c.Has(CategoryUser) {
		parts = append(parts, "user")
	}
	if c.Has(CategoryHidden) {
		parts = append(parts, "hidden")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Manifest describes an app. Factory creates a fresh App for every launch.
type Manifest struct {
	ID       string
	Name     string
	Icon     string
	Category Category
	Factory  func() App
}

// Visible reports whether the launcher should list the app
func (m Manifest) Visible() bool {
	return !m.Category.Has(CategoryHidden)
}

// ManifestInfo is a serializable view of a manifest
type ManifestInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon,omitempty"`
	Category string `json:"category"`
}

// Describe returns the snapshot of m
func (m Manifest) Describe() ManifestInfo {
	return ManifestInfo{
		ID:       m.ID,
		Name:     m.Name,
		Icon:     m.Icon,
		Category: m.Category.String(),
	}
}

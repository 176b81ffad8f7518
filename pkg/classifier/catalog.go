package classifier

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/medapp/medicine-catalog/pkg/errors"
)

// DefaultFallback is the catch-all category returned when nothing matches.
const DefaultFallback = "uncategorized"

// Category is one bucket of the classification taxonomy.
type Category struct {
	Slug     string   `json:"slug" yaml:"slug"`
	Name     string   `json:"name,omitempty" yaml:"name,omitempty"`
	Group    string   `json:"group,omitempty" yaml:"group,omitempty"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Group is a storefront grouping of categories, e.g. "diabetes-care".
type Group struct {
	Slug       string   `json:"slug" yaml:"slug"`
	Name       string   `json:"name,omitempty" yaml:"name,omitempty"`
	Categories []string `json:"categories" yaml:"categories"`
}

type keywordEntry struct {
	raw     string
	pattern *regexp.Regexp
	weight  int
}

type compiledCategory struct {
	Category
	keywords []keywordEntry
}

// Catalog is the immutable, ordered set of categories the classifier scores
// against. Declaration order is significant: it breaks score ties.
type Catalog struct {
	categories []compiledCategory
	index      map[string]int
	fallback   string
	groups     []Group
	groupIndex map[string]int
}

// NewCatalog validates and compiles a catalog. An empty fallback means
// DefaultFallback. Errors are configuration errors and should stop startup.
func NewCatalog(categories []Category, fallback string, groups ...Group) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, apperrors.NewConfigurationError("catalog has no categories", nil)
	}

	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = DefaultFallback
	}

	c := &Catalog{
		categories: make([]compiledCategory, 0, len(categories)),
		index:      make(map[string]int, len(categories)),
		fallback:   fallback,
		groupIndex: make(map[string]int, len(groups)),
	}

	for i, cat := range categories {
		slug := strings.TrimSpace(cat.Slug)
		if slug == "" {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("category at position %d has an empty slug", i), nil)
		}
		if _, dup := c.index[slug]; dup {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("duplicate category slug %q", slug), nil)
		}

		compiled, err := compileCategory(slug, cat)
		if err != nil {
			return nil, err
		}
		if len(compiled.keywords) == 0 && slug != fallback {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("category %q has no keywords", slug), nil)
		}

		c.index[slug] = len(c.categories)
		c.categories = append(c.categories, compiled)
	}

	if _, ok := c.index[fallback]; !ok {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("fallback category %q is not defined", fallback), nil)
	}

	for _, g := range groups {
		slug := strings.TrimSpace(g.Slug)
		if slug == "" {
			return nil, apperrors.NewConfigurationError("category group has an empty slug", nil)
		}
		if _, dup := c.groupIndex[slug]; dup {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("duplicate category group %q", slug), nil)
		}
		for _, member := range g.Categories {
			if _, ok := c.index[member]; !ok {
				return nil, apperrors.NewConfigurationError(fmt.Sprintf("group %q references unknown category %q", slug, member), nil)
			}
		}
		name := strings.TrimSpace(g.Name)
		if name == "" {
			name = displayName(slug)
		}
		c.groupIndex[slug] = len(c.groups)
		c.groups = append(c.groups, Group{Slug: slug, Name: name, Categories: append([]string(nil), g.Categories...)})
	}

	for _, cat := range c.categories {
		if cat.Group == "" {
			continue
		}
		if _, ok := c.groupIndex[cat.Group]; !ok {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("category %q references unknown group %q", cat.Slug, cat.Group), nil)
		}
	}

	return c, nil
}

func compileCategory(slug string, cat Category) (compiledCategory, error) {
	name := strings.TrimSpace(cat.Name)
	if name == "" {
		name = displayName(slug)
	}

	seen := make(map[string]struct{}, len(cat.Keywords))
	keywords := make([]keywordEntry, 0, len(cat.Keywords))
	for _, kw := range cat.Keywords {
		normalized := normalizeText(kw)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}

		pattern, err := compileKeyword(normalized)
		if err != nil {
			return compiledCategory{}, apperrors.NewConfigurationError(fmt.Sprintf("category %q: invalid keyword %q", slug, kw), err)
		}
		keywords = append(keywords, keywordEntry{
			raw:     normalized,
			pattern: pattern,
			weight:  keywordWeight(normalized),
		})
	}

	raw := make([]string, len(keywords))
	for i, kw := range keywords {
		raw[i] = kw.raw
	}

	return compiledCategory{
		Category: Category{
			Slug:     slug,
			Name:     name,
			Group:    strings.TrimSpace(cat.Group),
			Keywords: raw,
		},
		keywords: keywords,
	}, nil
}

// Keywords returns the normalized keywords of a category in declaration
// order, or nil for an unknown slug.
func (c *Catalog) Keywords(slug string) []string {
	i, ok := c.index[slug]
	if !ok {
		return nil
	}
	return append([]string(nil), c.categories[i].Keywords...)
}

// Categories returns every category slug in declaration order.
func (c *Catalog) Categories() []string {
	slugs := make([]string, len(c.categories))
	for i, cat := range c.categories {
		slugs[i] = cat.Slug
	}
	return slugs
}

// Category returns a copy of the category definition.
func (c *Catalog) Category(slug string) (Category, bool) {
	i, ok := c.index[slug]
	if !ok {
		return Category{}, false
	}
	cat := c.categories[i].Category
	cat.Keywords = append([]string(nil), cat.Keywords...)
	return cat, true
}

// Fallback returns the fallback category slug.
func (c *Catalog) Fallback() string {
	return c.fallback
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// Groups returns every group with its resolved members.
func (c *Catalog) Groups() []Group {
	groups := make([]Group, 0, len(c.groups))
	for _, g := range c.groups {
		resolved, _ := c.Group(g.Slug)
		groups = append(groups, resolved)
	}
	return groups
}

// Group returns a group whose members are its listed categories followed by
// any category declaring membership through its own Group field.
func (c *Catalog) Group(slug string) (Group, bool) {
	i, ok := c.groupIndex[slug]
	if !ok {
		return Group{}, false
	}
	g := c.groups[i]

	seen := make(map[string]struct{}, len(g.Categories))
	members := make([]string, 0, len(g.Categories))
	for _, m := range g.Categories {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		members = append(members, m)
	}
	for _, cat := range c.categories {
		if cat.Group != slug {
			continue
		}
		if _, dup := seen[cat.Slug]; dup {
			continue
		}
		seen[cat.Slug] = struct{}{}
		members = append(members, cat.Slug)
	}

	return Group{Slug: g.Slug, Name: g.Name, Categories: members}, true
}

// GroupsOf returns the slugs of every group containing the category, in group
// declaration order.
func (c *Catalog) GroupsOf(slug string) []string {
	var groups []string
	for _, g := range c.groups {
		resolved, _ := c.Group(g.Slug)
		for _, member := range resolved.Categories {
			if member == slug {
				groups = append(groups, g.Slug)
				break
			}
		}
	}
	return groups
}

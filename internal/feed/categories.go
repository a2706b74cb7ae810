package feed

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Category is one of the fixed top-headline sections.
type Category string

const (
	General       Category = "general"
	Business      Category = "business"
	Entertainment Category = "entertainment"
	Health        Category = "health"
	Science       Category = "science"
	Sports        Category = "sports"
	Technology    Category = "technology"
)

var allCategories = []Category{General, Business, Entertainment, Health, Science, Sports, Technology}

// Categories returns every category in tab order.
func Categories() []Category {
	return append([]Category(nil), allCategories...)
}

func (c Category) String() string { return string(c) }

// Title is the label shown on the category tab.
func (c Category) Title() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

func (c Category) Valid() bool {
	return lo.Contains(allCategories, c)
}

// ParseCategory accepts any casing and surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q (want one of %s)", s, strings.Join(lo.Map(allCategories, func(c Category, _ int) string {
			return string(c)
		}), ", "))
	}
	return c, nil
}

// Next returns the category after c, wrapping around. Unknown input yields General.
func (c Category) Next() Category {
	i := lo.IndexOf(allCategories, c)
	if i < 0 {
		return General
	}
	return allCategories[(i+1)%len(allCategories)]
}

// Prev returns the category before c, wrapping around. Unknown input yields General.
func (c Category) Prev() Category {
	i := lo.IndexOf(allCategories, c)
	if i < 0 {
		return General
	}
	return allCategories[(i-1+len(allCategories))%len(allCategories)]
}

// CategoryAt maps a 1-based tab number to its category.
func CategoryAt(n int) (Category, bool) {
	if n < 1 || n > len(allCategories) {
		return "", false
	}
	return allCategories[n-1], true
}

package post

import "strings"

// Category selects both the channel route and the promo variant of a submission.
type Category string

const (
	CategoryHD        Category = "HD"
	CategoryPreDVD    Category = "PREDVD"
	CategoryWebSeries Category = "WEBSERIES"
	CategoryCWC       Category = "CWC"
	CategoryAnime     Category = "ANIME"
	CategoryHollywood Category = "HOLLYWOOD"
	// CategoryDefault is used for any token outside the selectable set.
	CategoryDefault Category = "DEFAULT"
)

type categoryMeta struct {
	label string
	noun  string
}

// categories is the exhaustive table of known categories, selectable ones in keyboard order.
var categories = []struct {
	cat  Category
	meta categoryMeta
}{
	{CategoryHD, categoryMeta{label: "HD", noun: "Movie"}},
	{CategoryPreDVD, categoryMeta{label: "PreDVD", noun: "Movie"}},
	{CategoryWebSeries, categoryMeta{label: "WebSeries", noun: "WebSeries"}},
	{CategoryCWC, categoryMeta{label: "CWC", noun: "CWC Content"}},
	{CategoryAnime, categoryMeta{label: "Anime", noun: "Anime"}},
	{CategoryHollywood, categoryMeta{label: "Hollywood", noun: "Hollywood Movie"}},
	{CategoryDefault, categoryMeta{label: "Other", noun: "Content"}},
}

func lookup(c Category) (categoryMeta, bool) {
	for _, e := range categories {
		if e.cat == c {
			return e.meta, true
		}
	}
	return categoryMeta{}, false
}

// ParseCategory maps a callback token to a Category, case-insensitively.
// Unknown or empty tokens map to CategoryDefault.
func ParseCategory(token string) Category {
	c := Category(strings.ToUpper(strings.TrimSpace(token)))
	if c == CategoryDefault || !c.Selectable() {
		return CategoryDefault
	}
	return c
}

// Selectable reports whether c is one of the choices offered to the operator.
func (c Category) Selectable() bool {
	if c == CategoryDefault {
		return false
	}
	_, ok := lookup(c)
	return ok
}

// Label is the button text shown for the category.
func (c Category) Label() string {
	if m, ok := lookup(c); ok {
		return m.label
	}
	return string(c)
}

// Token is the lowercase callback payload identifying the category.
func (c Category) Token() string {
	return strings.ToLower(string(c))
}

func (c Category) noun() string {
	if m, ok := lookup(c); ok {
		return m.noun
	}
	m, _ := lookup(CategoryDefault)
	return m.noun
}

// Selectable returns the categories offered on the selection keyboard, in display order.
func Selectable() []Category {
	out := make([]Category, 0, len(categories)-1)
	for _, e := range categories {
		if e.cat != CategoryDefault {
			out = append(out, e.cat)
		}
	}
	return out
}

// All returns every category including CategoryDefault.
func All() []Category {
	out := make([]Category, 0, len(categories))
	for _, e := range categories {
		out = append(out, e.cat)
	}
	return out
}

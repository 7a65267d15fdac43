// Package catalog holds the fixed, ordered list of job categories.
// Display order defines the numeric indices used as compact selection
// ids on the wire; indices are derived from list position at send time
// only and are never persisted, so a catalog edit between deploys
// cannot corrupt stored data (in-flight selections from the previous
// deploy may still land on the wrong entry — known limitation).
package catalog

import "strings"

// Default categories, in display order. French copy, single language.
var defaultCategories = []string{
	"Informatique",
	"Marketing",
	"Finance",
	"Santé",
	"Éducation",
	"Ingénierie",
	"Commerce",
	"Ressources humaines",
	"Logistique",
	"Juridique",
	"Communication",
	"Télétravail",
}

// Entry is one category with its stable position in the catalog.
type Entry struct {
	Index int
	Name  string
}

// Catalog is an immutable ordered category list.
type Catalog struct {
	names []string
}

// New builds a catalog from the given names, trimming whitespace and
// dropping empties and duplicates while preserving order.
func New(names []string) *Catalog {
	seen := make(map[string]bool, len(names))
	clean := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		clean = append(clean, n)
	}
	return &Catalog{names: clean}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultCategories)
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Name returns the category at index i.
func (c *Catalog) Name(i int) (string, bool) {
	if i < 0 || i >= len(c.names) {
		return "", false
	}
	return c.names[i], true
}

// Contains reports whether name is a catalog category.
func (c *Catalog) Contains(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

// TotalPages returns the number of pages for the given page size.
func (c *Catalog) TotalPages(pageSize int) int {
	if pageSize <= 0 || len(c.names) == 0 {
		return 0
	}
	return (len(c.names) + pageSize - 1) / pageSize
}

// Page returns the entries of the given zero-based page. An
// out-of-range page returns an empty slice.
func (c *Catalog) Page(page, pageSize int) []Entry {
	if page < 0 || pageSize <= 0 {
		return nil
	}
	start := page * pageSize
	if start >= len(c.names) {
		return nil
	}
	end := start + pageSize
	if end > len(c.names) {
		end = len(c.names)
	}
	entries := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, Entry{Index: i, Name: c.names[i]})
	}
	return entries
}

// Package catalog holds the preloaded list of world countries and the prefix
// search over their names.
//
// A Catalog is built once from a Source and never mutated afterwards, so it
// can be shared freely between the TUI, the line CLI and the IPC server.
package catalog

import "strings"

// Currency is a single currency used by a country.
type Currency struct {
	Name   string
	Symbol string
}

// Country is one normalized catalog record.
// CommonName is always non-empty and doubles as the record identity.
type Country struct {
	CommonName    string
	OfficialName  string
	LocalizedName string
	FlagURL       string
	Capital       string
	Population    int64
	Region        string
	Subregion     string
	Languages     []string
	Currencies    []Currency
}

// HasCapital reports whether the country has a registered capital.
func (c Country) HasCapital() bool {
	return c.Capital != ""
}

// searchNames returns the distinct, lower-cased, non-empty names a query is
// matched against.
func (c Country) searchNames() []string {
	names := make([]string, 0, 3)
	for _, n := range []string{c.CommonName, c.LocalizedName, c.OfficialName} {
		lower := strings.ToLower(n)
		if lower == "" {
			continue
		}
		dup := false
		for _, seen := range names {
			if seen == lower {
				dup = true
				break
			}
		}
		if !dup {
			names = append(names, lower)
		}
	}
	return names
}

// NormalizeQuery trims and lower-cases raw user input.
// An empty result means "no query".
func NormalizeQuery(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

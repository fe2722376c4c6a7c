// Package record defines the bibliographic record type shared by the
// page generators and exporters.
package record

import "strings"

// AuthorSeparator joins author names in BibTeX-style author fields.
const AuthorSeparator = " and "

// ORCIDField holds positionally aligned author identifiers.
const ORCIDField = "author+an:orcid"

// Record is a single bibliographic entry from the record store.
// Field values are opaque strings; unknown custom fields are kept so
// that downstream exporters can round-trip them.
type Record struct {
	// Key is the citation key, used as lookup key and output file stem.
	Key string
	// Type is the BibTeX entry type (article, inproceedings, ...).
	Type string
	// Fields maps field names to raw values.
	Fields map[string]string
	// Order lists field names in source order.
	Order []string
}

// Author is one entry of a record's author list, optionally paired
// with an ORCID identifier.
type Author struct {
	Name  string `yaml:"name" json:"name"`
	ORCID string `yaml:"orcid,omitempty" json:"orcid,omitempty"`
}

// New returns an empty record with the given key and entry type.
func New(key, entryType string) *Record {
	return &Record{
		Key:    key,
		Type:   entryType,
		Fields: make(map[string]string),
	}
}

// Set stores a field value, tracking insertion order for new names.
func (r *Record) Set(name, value string) {
	if _, ok := r.Fields[name]; !ok {
		r.Order = append(r.Order, name)
	}
	r.Fields[name] = value
}

// Get returns the first non-empty value among the candidate field
// names, or the empty string. Field renames over the life of the
// record store mean several names can refer to the same datum.
func (r *Record) Get(names ...string) string {
	return r.GetDefault("", names...)
}

// GetDefault is Get with an explicit fallback value.
func (r *Record) GetDefault(def string, names ...string) string {
	for _, n := range names {
		if v, ok := r.Fields[n]; ok && v != "" {
			return v
		}
	}
	return def
}

// Keywords splits the keywords field on ';' or ',' into trimmed,
// non-empty entries.
func (r *Record) Keywords() []string {
	raw := r.Get("keywords")
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Authors splits the author field on the BibTeX separator and pairs
// each name with its ORCID from the positionally aligned identifier
// field. Empty identifier positions are kept as placeholders so that
// alignment survives unequal lengths; identifiers past the end of the
// author list are ignored.
func (r *Record) Authors() []Author {
	raw := strings.TrimSpace(r.Get("author"))
	if raw == "" {
		return nil
	}

	var names []string
	for _, a := range strings.Split(raw, AuthorSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			names = append(names, a)
		}
	}

	orcids := splitAligned(strings.TrimSpace(r.Get(ORCIDField)))

	authors := make([]Author, 0, len(names))
	for i, name := range names {
		a := Author{Name: name}
		if i < len(orcids) {
			a.ORCID = orcids[i]
		}
		authors = append(authors, a)
	}
	return authors
}

// splitAligned splits an identifier list on ';' (falling back to ','),
// keeping empty positions so indices match the author list.
func splitAligned(raw string) []string {
	if raw == "" {
		return nil
	}

	sep := ""
	switch {
	case strings.Contains(raw, ";"):
		sep = ";"
	case strings.Contains(raw, ","):
		sep = ","
	}
	if sep == "" {
		return []string{raw}
	}

	parts := strings.Split(raw, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

package cite

import (
	"strings"

	"github.com/fs-ise/handbook-tools/internal/record"
)

// APA formats a record as a single APA-style citation string, e.g.
//
//	Smith, J. & Doe, J. (2020). Title. *Journal* 10(2), 123–145. https://doi.org/xxx
//
// Missing components are omitted; a record with no components at all
// yields the empty string.
func APA(rec *record.Record) string {
	authors := formatAuthorsAPA(rec.Get("author"))

	year := strings.TrimSpace(rec.Get("year"))
	yearStr := "(n.d.)."
	if year != "" {
		yearStr = "(" + year + ")."
	}

	title := strings.TrimSpace(rec.Get("title"))
	outlet := strings.TrimSpace(rec.Get("journal", "booktitle"))

	volume := strings.TrimSpace(rec.Get("volume"))
	number := strings.TrimSpace(rec.Get("number"))
	// BibTeX page ranges use "--"; APA wants an en dash.
	pages := strings.ReplaceAll(strings.TrimSpace(rec.Get("pages")), "--", "–")

	var outletParts []string
	if outlet != "" {
		outletParts = append(outletParts, "*"+outlet+"*")
	}

	volIssuePages := volume
	if number != "" {
		volIssuePages += "(" + number + ")"
	}
	if pages != "" {
		if volIssuePages != "" {
			volIssuePages += ", " + pages
		} else {
			volIssuePages = pages
		}
	}
	if volIssuePages != "" {
		outletParts = append(outletParts, volIssuePages)
	}

	outletStr := ""
	if len(outletParts) > 0 {
		outletStr = strings.Join(outletParts, " ") + "."
	}

	link := ResolveDOI(rec.Get("doi"))
	if link == "" {
		link = strings.TrimSpace(rec.Get("url"))
	}

	// No components at all: no citation.
	if authors == "" && year == "" && title == "" && outletStr == "" && link == "" {
		return ""
	}

	var parts []string
	if authors != "" {
		parts = append(parts, authors)
	}
	parts = append(parts, yearStr)
	if title != "" {
		parts = append(parts, title+".")
	}
	if outletStr != "" {
		parts = append(parts, outletStr)
	}
	if link != "" {
		parts = append(parts, link)
	}

	return strings.TrimSpace(strings.Join(parts, " "))
}

// ResolveDOI turns a bare DOI into a resolver URL. Values that are
// already URLs pass through; empty in, empty out.
func ResolveDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if doi == "" || strings.HasPrefix(doi, "http") {
		return doi
	}
	return "https://doi.org/" + doi
}

// formatAuthorsAPA renders a BibTeX author field as an APA author
// list: two authors joined with "&", three or more as a comma list
// ending in ", & last".
func formatAuthorsAPA(raw string) string {
	var formatted []string
	for _, a := range strings.Split(raw, record.AuthorSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			if name := formatNameAPA(a); name != "" {
				formatted = append(formatted, name)
			}
		}
	}

	switch len(formatted) {
	case 0:
		return ""
	case 1:
		return formatted[0]
	case 2:
		return formatted[0] + " & " + formatted[1]
	default:
		return strings.Join(formatted[:len(formatted)-1], ", ") + ", & " + formatted[len(formatted)-1]
	}
}

// formatNameAPA converts "Last, First Middle" (or "First Middle Last")
// to "Last, F. M." with single-letter initials.
func formatNameAPA(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	var last string
	var givenParts []string
	if before, after, ok := strings.Cut(name, ","); ok {
		last = strings.TrimSpace(before)
		givenParts = strings.Fields(after)
	} else {
		parts := strings.Fields(name)
		if len(parts) == 1 {
			return parts[0]
		}
		last = parts[len(parts)-1]
		givenParts = parts[:len(parts)-1]
	}

	initials := make([]string, 0, len(givenParts))
	for _, p := range givenParts {
		initials = append(initials, string([]rune(p)[0])+".")
	}
	if len(initials) == 0 {
		return last
	}
	return last + ", " + strings.Join(initials, " ")
}

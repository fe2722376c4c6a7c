package calendar

import (
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const prodID = "-//handbook-tools//calendar//EN"

// WriteICS renders occurrences as an RFC 5545 calendar and writes it
// to path. now stamps the DTSTAMP lines; UIDs are derived from event
// title and start so regeneration is stable.
func WriteICS(path, name string, occs []Occurrence, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+prodID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "X-WR-CALNAME:"+escapeText(name))

	stamp := now.UTC().Format("20060102T150405Z")
	for _, occ := range occs {
		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+occurrenceUID(occ))
		writeLine(&b, "DTSTAMP:"+stamp)
		writeLine(&b, "DTSTART:"+occ.Start.UTC().Format("20060102T150405Z"))
		writeLine(&b, "DTEND:"+occ.End.UTC().Format("20060102T150405Z"))
		writeLine(&b, "SUMMARY:"+escapeText(occ.Title))
		if occ.Location != "" {
			writeLine(&b, "LOCATION:"+escapeText(occ.Location))
		}
		if occ.Description != "" {
			writeLine(&b, "DESCRIPTION:"+escapeText(occ.Description))
		}
		writeLine(&b, "END:VEVENT")
	}
	writeLine(&b, "END:VCALENDAR")

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// occurrenceUID builds a deterministic UID from title and start.
func occurrenceUID(occ Occurrence) string {
	sum := sha1.Sum([]byte(occ.Title + "|" + occ.Start.UTC().Format(time.RFC3339)))
	return fmt.Sprintf("%x@handbook", sum[:8])
}

// escapeText escapes text values per RFC 5545 §3.3.11.
func escapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

// writeLine appends a content line folded with CRLF. Every physical
// line stays within 75 octets; the leading space on continuation lines
// counts toward the limit.
func writeLine(b *strings.Builder, line string) {
	limit := 75
	for len(line) > limit {
		cut := limit
		// Do not split in the middle of a UTF-8 sequence.
		for cut > 0 && line[cut]&0xC0 == 0x80 {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = 74
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

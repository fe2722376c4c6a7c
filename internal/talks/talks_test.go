package talks

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		talk Talk
		want string
	}{
		{
			name: "directory slides path",
			talk: Talk{SlidesURL: "2024_10_22_inaugural_lecture/slides.html"},
			want: "2024_10_22_inaugural_lecture",
		},
		{
			name: "flat pdf slides",
			talk: Talk{SlidesURL: "2024_10_22_inaugural_lecture_digital_knowledge_work.pdf"},
			want: "2024_10_22_inaugural_lecture_digital_knowledge_work",
		},
		{
			name: "fallback from title and date",
			talk: Talk{Title: "Open Source, Sustainably!", Date: "2015-12-15"},
			want: "2015_12_15_open_source_sustainably",
		},
		{
			name: "title only",
			talk: Talk{Title: "Keynote"},
			want: "keynote",
		},
		{
			name: "empty record",
			talk: Talk{},
			want: "talk",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.talk.Slug(); got != tt.want {
				t.Errorf("Slug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPage(t *testing.T) {
	talk := Talk{
		ID:           "Wagner2024Inaugural",
		Title:        `Digital "Knowledge" Work`,
		Venue:        "University of Bamberg",
		Location:     "Bamberg, Germany",
		Date:         "2024-10-22",
		SlidesURL:    "2024_10_22_inaugural_lecture/slides.html",
		HowPublished: "Inaugural lecture",
		PaperKey:     "Wagner2024",
	}

	page := talk.RenderPage()

	for _, want := range []string{
		`title: "Digital \"Knowledge\" Work"`,
		`date: "2024-10-22"`,
		`venue: "University of Bamberg"`,
		`bibtex_id: "Wagner2024Inaugural"`,
		"format: html",
		"- **Venue:** {{< meta venue >}}",
		"- **Date:** {{< meta date >}}",
		"**Related paper:** [Link](../papers/Wagner2024.html)",
		"- [Slides](2024_10_22_inaugural_lecture/slides.html)",
		"- [Paper](../papers/Wagner2024.html)",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}
}

func TestRenderPage_Minimal(t *testing.T) {
	page := Talk{ID: "X", Title: "Short"}.RenderPage()

	if !strings.Contains(page, "_No materials linked._") {
		t.Errorf("missing materials placeholder:\n%s", page)
	}
	if strings.Contains(page, "Related paper") {
		t.Errorf("unexpected related paper block:\n%s", page)
	}
	if strings.Contains(page, "location:") {
		t.Errorf("empty location should be omitted from front matter:\n%s", page)
	}
}

func TestLoadTalks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talks.bib")
	content := `@misc{Wagner2015OSS,
  title        = {{Open Source, Sustainably}},
  eventtitle   = {Chaos Communication Congress},
  location     = {Hamburg, Germany},
  date         = {2015-12-15},
  latitude     = {53.5511},
  longitude    = {9.9937},
}

@misc{Wagner2020Remote,
  title        = {Remote Work},
  venue        = {Online seminar},
  date         = {2020-05-01},
}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	talks, err := LoadTalks(path)
	if err != nil {
		t.Fatalf("LoadTalks() error: %v", err)
	}
	if len(talks) != 2 {
		t.Fatalf("LoadTalks() = %d talks, want 2", len(talks))
	}

	first := talks[0]
	if first.Title != "Open Source, Sustainably" {
		t.Errorf("braces not stripped from title: %q", first.Title)
	}
	if first.Venue != "Chaos Communication Congress" {
		t.Errorf("venue should fall back to eventtitle: %q", first.Venue)
	}
	if talks[1].Venue != "Online seminar" {
		t.Errorf("explicit venue lost: %q", talks[1].Venue)
	}
}

func TestGenerateAndPlacesCSV(t *testing.T) {
	dir := t.TempDir()
	talks := []Talk{
		{ID: "A", Title: "Mapped", Date: "2020-01-01", Latitude: "49.9", Longitude: "10.9"},
		{ID: "B", Title: "Unmapped", Date: "2021-01-01"},
	}

	var log strings.Builder
	created, err := Generate(talks, dir, &log)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if created != 2 {
		t.Errorf("created = %d, want 2", created)
	}
	if _, err := os.Stat(filepath.Join(dir, "2020_01_01_mapped.qmd")); err != nil {
		t.Errorf("talk page not written: %v", err)
	}

	csvPath := filepath.Join(dir, "talk_places.csv")
	if err := WritePlacesCSV(csvPath, talks); err != nil {
		t.Fatalf("WritePlacesCSV() error: %v", err)
	}
	data, _ := os.ReadFile(csvPath)
	got := strings.TrimSpace(string(data))
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("CSV should hold header plus one mapped talk:\n%s", got)
	}
	if lines[0] != "id,title,venue,location,date,latitude,longitude" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "A,Mapped,") || !strings.Contains(lines[1], "49.9,10.9") {
		t.Errorf("row = %q", lines[1])
	}
}

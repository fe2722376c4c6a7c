package bibtex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StripForReferences lists internal and provenance fields that must
// not appear in the published references file or in citation blocks.
var StripForReferences = map[string]bool{
	"citation_key":                    true,
	"colrev_id":                       true,
	"colrev_origin":                   true,
	"colrev_pdf_id":                   true,
	"colrev_status":                   true,
	"colrev_masterdata_provenance":    true,
	"colrev_data_provenance":          true,
	"colrev.dblp.dblp_key":            true,
	"colrev.europe_pmc.europe_pmc_id": true,
	"colrev.pubmed.pubmedid":          true,
	"curation_id":                     true,
	"screening_criteria":              true,
	"file":                            true,
	"oa_status":                       true,
	"fulltext_oa":                     true,
	"language":                        true,
	"dblp_key":                        true,
	"topic":                           true,
	"lr_type_pare_et_al":              true,
	"goal_rowe":                       true,
	"synthesis":                       true,
	"r_gaps":                          true,
	"theory_building":                 true,
	"aggregating_evidence":            true,
	"r_agenda":                        true,
	"r_agenda_levels":                 true,
	"cited_by":                        true,
	"summary_url":                     true,
	"appendix_url":                    true,
	"dataset_url":                     true,
	"dataset_doi":                     true,
	"code_url":                        true,
	"author_copy_url":                 true,
	"author_copy_file":                true,
	"author+an:orcid":                 true,
}

// Write serializes the store to a .bib file, omitting fields in the
// strip set. Parent directories are created as needed.
func Write(path string, store *Store, strip map[string]bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var b strings.Builder
	for i, key := range store.Keys {
		rec := store.Records[key]
		if rec == nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("@%s{%s,\n", rec.Type, rec.Key))
		for _, name := range rec.Order {
			if strip[name] {
				continue
			}
			value := rec.Fields[name]
			if value == "" {
				continue
			}
			value = strings.Join(strings.Fields(value), " ")
			b.WriteString(fmt.Sprintf("  %-10s = {%s},\n", name, value))
		}
		b.WriteString("}\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

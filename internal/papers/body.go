package papers

import (
	"fmt"
	"html"
	"strings"

	"github.com/fs-ise/handbook-tools/internal/bibtex"
	"github.com/fs-ise/handbook-tools/internal/cite"
	"github.com/fs-ise/handbook-tools/internal/record"
)

// section renders one optional body block; empty string means omit.
type section func(*record.Record) string

// buildBody assembles the page body as a fixed pipeline of optional
// sections. The caller-supplied template (if any) slots in between the
// embedded PDF and the metrics block, with a duplicated leading
// summary heading stripped. Empty sections contribute nothing.
func buildBody(rec *record.Record, templateBody string) string {
	sections := []section{
		summarySection,
		buttonsSection,
		resourcesSection,
		pdfEmbedSection,
		func(*record.Record) string { return mergeTemplate(templateBody) },
		metricsSection,
		apaSection,
		bibtexSection,
		risSection,
	}

	var parts []string
	for _, sec := range sections {
		if s := sec(rec); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// mergeTemplate strips a single verbatim leading "# Summary" heading
// from the caller-supplied template body so it does not duplicate the
// generated summary section.
func mergeTemplate(templateBody string) string {
	tmpl := strings.TrimLeft(templateBody, " \t\n")
	if strings.HasPrefix(strings.ToLower(tmpl), "# summary") {
		lines := strings.Split(tmpl, "\n")
		i := 1
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		tmpl = strings.TrimLeft(strings.Join(lines[i:], "\n"), "\n")
	}
	return strings.TrimSpace(tmpl)
}

func summarySection(rec *record.Record) string {
	abstract := strings.TrimSpace(rec.Get("abstract"))
	if abstract == "" {
		return ""
	}
	return "# Summary\n\n::: { .justify }\n\n" + abstract + "\n\n:::"
}

// landingLink returns the article landing page: resolver URL for a
// DOI, the DOI itself when already a URL, else the url field.
func landingLink(rec *record.Record) string {
	if doi := strings.TrimSpace(rec.Get("doi")); doi != "" {
		return cite.ResolveDOI(doi)
	}
	return strings.TrimSpace(rec.Get("url"))
}

// rootRelative turns a repository-local path into a root-relative href
// so it resolves from nested page locations. URLs pass through.
func rootRelative(path string) string {
	if strings.HasPrefix(path, "http") {
		return path
	}
	return "/" + strings.TrimLeft(path, "/")
}

// fulltextHref resolves the full-text reference. The sentinel "TODO"
// means explicitly not available yet.
func fulltextHref(rec *record.Record) string {
	raw := strings.TrimSpace(rec.Get("fulltext_oa"))
	if raw == "" || raw == "TODO" {
		return ""
	}
	return rootRelative(raw)
}

func authorCopyFileHref(rec *record.Record) string {
	raw := strings.TrimSpace(rec.Get("author_copy_file"))
	if raw == "" {
		return ""
	}
	return rootRelative(raw)
}

// fulltextLabel depends on the open-access status field.
func fulltextLabel(rec *record.Record) string {
	if strings.EqualFold(strings.TrimSpace(rec.Get("oa_status")), "open") {
		return "Open access PDF"
	}
	return "Full-text PDF"
}

func buttonsSection(rec *record.Record) string {
	landing := landingLink(rec)
	authorCopy := strings.TrimSpace(rec.Get("author_copy_url"))
	if authorCopy == "" {
		authorCopy = authorCopyFileHref(rec)
	}
	fulltext := fulltextHref(rec)

	if landing == "" && authorCopy == "" && fulltext == "" {
		return ""
	}

	var btns []string
	if landing != "" {
		btns = append(btns, fmt.Sprintf(
			`  <a class="btn btn-sm btn-outline-secondary me-2" href="%s" target="_blank" role="button">
    <i class="bi bi-box-arrow-up-right"></i> Article / DOI link
  </a>`, landing))
	}
	if authorCopy != "" {
		btns = append(btns, fmt.Sprintf(
			`  <a class="btn btn-sm btn-outline-secondary me-2" href="%s" target="_blank" role="button">
    <i class="bi bi-file-earmark-text"></i> Author copy
  </a>`, authorCopy))
	}
	if fulltext != "" {
		btns = append(btns, fmt.Sprintf(
			`  <a class="btn btn-sm btn-outline-primary" href="%s" target="_blank" role="button">
    <i class="bi bi-file-earmark-pdf"></i> %s
  </a>`, fulltext, fulltextLabel(rec)))
	}

	return "<div class=\"text-center my-3\">\n" + strings.Join(btns, "\n") + "\n</div>"
}

func resourcesSection(rec *record.Record) string {
	summaryURL := strings.TrimSpace(rec.Get("summary_url"))
	appendixURL := strings.TrimSpace(rec.Get("appendix_url"))
	datasetURL := strings.TrimSpace(rec.Get("dataset_url"))
	codeURL := strings.TrimSpace(rec.Get("code_url"))
	datasetDOI := cite.ResolveDOI(rec.Get("dataset_doi"))

	var lines []string
	if summaryURL != "" {
		lines = append(lines, "- Summary / overview: <"+summaryURL+">")
	}
	if appendixURL != "" {
		lines = append(lines, "- Appendix / supplementary materials: <"+appendixURL+">")
	}
	if codeURL != "" {
		lines = append(lines, "- Code / source: <"+codeURL+">")
	}
	switch {
	case datasetURL != "" && datasetDOI != "":
		lines = append(lines, "- Dataset: <"+datasetURL+"> (DOI: <"+datasetDOI+">)")
	case datasetURL != "":
		lines = append(lines, "- Dataset: <"+datasetURL+">")
	case datasetDOI != "":
		lines = append(lines, "- Dataset DOI: <"+datasetDOI+">")
	}

	if len(lines) == 0 {
		return ""
	}
	return "## Additional resources\n\n" + strings.Join(lines, "\n")
}

// pdfEmbedSection embeds the full text in the page, preferring the OA
// copy over the author copy.
func pdfEmbedSection(rec *record.Record) string {
	href := fulltextHref(rec)
	label := fulltextLabel(rec)
	if href == "" {
		href = authorCopyFileHref(rec)
		label = "Author-copy PDF"
	}
	if href == "" {
		return ""
	}

	return fmt.Sprintf(`## %s

<iframe src="%s" width="100%%" height="800px" style="border: 1px solid #ccc;">
  This browser does not support PDFs. Please use the button above to download the PDF.
</iframe>`, label, href)
}

// metricsSection embeds the Altmetric, Dimensions, and scite.ai badges
// keyed by DOI.
func metricsSection(rec *record.Record) string {
	doi := strings.TrimSpace(rec.Get("doi"))
	if doi == "" {
		return ""
	}
	attr := html.EscapeString(doi)

	return "```{=html}\n" + fmt.Sprintf(`<div class="metrics-row">

  <div class="metric">
    <div class="altmetric-embed"
         data-badge-type="donut"
         data-badge-popover="right"
         data-doi="%s"
         data-hide-no-mentions="true">
    </div>
  </div>

  <div class="metric">
    <span class="__dimensions_badge_embed__"
          data-doi="%s"
          data-style="small_circle"
          data-hide-zero-citations="true"
          data-legend="hover-right">
    </span>
  </div>

  <div class="metric">
    <div class="scite-badge"
         data-doi="%s">
    </div>
  </div>

</div>
`, attr, attr, attr) + "```"
}

func apaSection(rec *record.Record) string {
	citation := strings.TrimSpace(cite.APA(rec))
	if citation == "" {
		return ""
	}

	return fmt.Sprintf(`## Citation (APA style)

<div class="apa-citation">
<p style="text-indent:-2.5em; margin-left:2.5em;">
%s
</p>
</div>`, html.EscapeString(citation))
}

func bibtexSection(rec *record.Record) string {
	entry := strings.TrimSpace(cite.BibTeX(rec, bibtex.StripForReferences))
	if entry == "" {
		return ""
	}
	return "## Citation: BibTeX\n\n```bibtex\n" + entry + "\n```"
}

func risSection(rec *record.Record) string {
	entry := strings.TrimSpace(cite.RIS(rec))
	if entry == "" {
		return ""
	}
	return "## Citation: RIS\n\n```bibtex\n" + entry + "\n```"
}

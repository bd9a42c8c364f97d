package app

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/deulaag/converhtmlelementor/internal/convert"
	"github.com/deulaag/converhtmlelementor/internal/export"
)

// sliceCounts tallies the widgets and containers inside one slice.
func sliceCounts(env convert.Envelope) (widgets, containers int) {
	for _, root := range env.Content {
		root.Walk(func(e *convert.Element) {
			if e.IsWidget() {
				widgets++
			} else {
				containers++
			}
		})
	}
	return widgets, containers
}

// buildReport renders a short Markdown summary of one conversion run.
func buildReport(res *convert.Result, man *export.Manifest, meta export.Meta) string {
	var b strings.Builder
	b.WriteString("# Elementor conversion report\n\n")
	b.WriteString("- Generated: ")
	b.WriteString(meta.GeneratedAt.UTC().Format(time.RFC3339))
	b.WriteString("\n- Version: ")
	b.WriteString(meta.Version)
	b.WriteString("\n- Resolver: ")
	b.WriteString(meta.Resolver)
	fmt.Fprintf(&b, "\n- Viewport: %dpx", meta.ViewportWidth)
	fmt.Fprintf(&b, "\n- Widgets: %d", res.Stats.Widgets)
	fmt.Fprintf(&b, "\n- Containers: %d", res.Stats.Sections)
	fmt.Fprintf(&b, "\n- Custom CSS injected: %t\n", res.Stats.CustomCSSInjected)

	b.WriteString("\n## Sections\n\n")
	if len(res.Sections) == 0 {
		b.WriteString("No visible sections.\n")
	}
	// Write records the full site first, then one file per slice in order.
	sliceFiles := len(res.Sections) > 0 && man != nil && len(man.Files) == len(res.Sections)+1
	for i, s := range res.Sections {
		w, c := sliceCounts(s.JSONContent)
		fmt.Fprintf(&b, "%d. %s: id `%s`, %d widgets, %d containers", i+1, s.Name, s.ID, w, c)
		if sliceFiles {
			b.WriteString(", file ")
			b.WriteString(man.Files[i+1].File)
		}
		b.WriteString("\n")
	}

	if man != nil && len(man.Files) > 0 {
		b.WriteString("\n## Files\n\n")
		for _, f := range man.Files {
			fmt.Fprintf(&b, "- %s (%d bytes) sha256=%s\n", f.File, f.Bytes, f.SHA256)
		}
	}
	return b.String()
}

// writeReportPDF renders the Markdown report as a plain PDF. Headings get a
// bold font; everything else is written line by line.
func writeReportPDF(markdown string, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.TrimSpace(s[i:])
			if text == "" {
				continue
			}
			size := 14.0
			if i >= 2 {
				size = 12.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		pdf.MultiCell(0, 5, tr(strings.ReplaceAll(s, "`", "")), "", "L", false)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}

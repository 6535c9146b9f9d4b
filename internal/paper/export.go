package paper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Export flattens the paper into a markdown document ending with a
// provenance line.
func Export(p *Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.TitleText())
	for _, name := range Order {
		if name == Title {
			continue
		}
		section := p.Sections[name]
		if section == nil {
			continue
		}
		content := section.Content
		if content == "" {
			content = notDraftedPlaceholder
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", name, content)
	}
	fmt.Fprintf(&b, "---\n\nSource Repository: %s\n", p.RepoURL)
	return b.String()
}

// ExportFilename derives a file name from the paper title.
func ExportFilename(p *Paper) string {
	return strings.ToLower(nonAlphanumeric.ReplaceAllString(p.TitleText(), "_")) + ".md"
}

// ExportHTML renders the markdown export as an HTML fragment.
func ExportHTML(p *Paper) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Export(p)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

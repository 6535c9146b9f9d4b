package paper

import "strings"

// ParagraphDelimiter separates paragraphs inside section content.
const ParagraphDelimiter = "\n\n"

// Split breaks content on the paragraph delimiter, dropping blank pieces.
func Split(content string) []string {
	if content == "" {
		return nil
	}
	pieces := strings.Split(content, ParagraphDelimiter)
	paragraphs := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		paragraphs = append(paragraphs, piece)
	}
	return paragraphs
}

// Join is the inverse of Split.
func Join(paragraphs []string) string {
	return strings.Join(paragraphs, ParagraphDelimiter)
}

// Collapse folds text that spans several paragraphs into one by joining the
// pieces with a single newline, so it occupies exactly one paragraph slot.
func Collapse(text string) string {
	pieces := Split(strings.TrimSpace(text))
	for i, piece := range pieces {
		pieces[i] = strings.TrimSpace(piece)
	}
	return strings.Join(pieces, "\n")
}

// Segment returns the addressable paragraphs of a section. A leading copy of
// the section title, with any heading markers or colons around it, is not
// part of the body and is skipped.
func Segment(title SectionName, content string) []string {
	return Split(stripTitle(title, content))
}

func stripTitle(title SectionName, content string) string {
	content = strings.TrimSpace(content)
	if !title.Valid() || content == "" {
		return content
	}
	label := strings.ToLower(title.String())
	candidate := strings.TrimSpace(strings.TrimLeft(content, "#* "))
	if !strings.HasPrefix(strings.ToLower(candidate), label) {
		return content
	}
	rest := candidate[len(label):]
	// "Results show..." is prose, not a heading.
	if next := strings.TrimLeft(rest, " \t"); next != "" && !strings.ContainsRune("#:*\r\n", rune(next[0])) {
		return content
	}
	rest = strings.TrimSpace(rest)
	for strings.HasPrefix(rest, "#") || strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "*") {
		rest = strings.TrimSpace(rest[1:])
	}
	return rest
}

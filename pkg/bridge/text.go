// Package bridge converts between structured document fields and the
// free-text form they are edited in.
package bridge

import "strings"

const paragraphBreak = "\n\n"

// ComposePresentation joins the three narrative fields into one text,
// separated by blank lines.
func ComposePresentation(headline, coreIdentity, careerGoal string) string {
	return strings.Join([]string{
		strings.TrimSpace(headline),
		strings.TrimSpace(coreIdentity),
		strings.TrimSpace(careerGoal),
	}, paragraphBreak)
}

// DecomposePresentation splits text on its first two blank-line
// delimiters. The first part is the headline, the second the core identity,
// and the rest, further paragraphs included, is the career goal. An empty
// slot between delimiters stays empty.
func DecomposePresentation(text string) (headline, coreIdentity, careerGoal string) {
	parts := strings.SplitN(text, paragraphBreak, 3)
	headline = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		coreIdentity = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		careerGoal = strings.TrimSpace(parts[2])
	}
	return headline, coreIdentity, careerGoal
}

// SplitList splits on newlines and commas, trims, and drops empty items.
// Order and duplicates are kept.
func SplitList(text string) []string {
	return split(text, func(r rune) bool { return r == '\n' || r == ',' })
}

// JoinList is the display form of a list: one item per line.
func JoinList(items []string) string {
	return strings.Join(items, "\n")
}

// SplitComma splits on commas only.
func SplitComma(text string) []string {
	return split(text, func(r rune) bool { return r == ',' })
}

// JoinComma is the display form for comma lists.
func JoinComma(items []string) string {
	return strings.Join(items, ", ")
}

// SplitLines splits on newlines only.
func SplitLines(text string) []string {
	return split(text, func(r rune) bool { return r == '\n' })
}

func split(text string, sep func(rune) bool) []string {
	items := []string{}
	for _, part := range strings.FieldsFunc(text, sep) {
		if s := strings.TrimSpace(part); s != "" {
			items = append(items, s)
		}
	}
	return items
}

package summarize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSummaryLen bounds the composed summary, in characters.
	MaxSummaryLen = 320
	ellipsis      = "..."

	// KeyFindingsPlaceholder is used when no summary parts were produced.
	KeyFindingsPlaceholder = "Key findings pending AI analysis"
	maxKeyFindings         = 3
)

// Label pairs a canonical section key with the label shown in summaries.
type Label struct {
	Key     string
	Display string
}

// labelOrder decides which sections appear in a summary and in what order.
var labelOrder = []Label{
	{Key: "reason for admission", Display: "Admission"},
	{Key: "chief complaint", Display: "Chief complaint"},
	{Key: "history of present illness", Display: "HPI"},
	{Key: "past medical history", Display: "PMH"},
	{Key: "physical examination", Display: "Exam"},
	{Key: "assessment", Display: "Assessment"},
	{Key: "plan", Display: "Plan"},
}

// LabelOrder returns a copy of the summary label table.
func LabelOrder() []Label {
	out := make([]Label, len(labelOrder))
	copy(out, labelOrder)
	return out
}

// Compose builds the display summary for a note. It returns the bounded
// summary text and the ordered parts it was built from.
func Compose(text string, sections Sections) (string, []string) {
	var parts []string
	for _, l := range labelOrder {
		if v := sections[l.Key]; v != "" {
			parts = append(parts, l.Display+": "+v)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, leadingSentences(text, 2))
	}
	return truncate(strings.Join(parts, " "), MaxSummaryLen), parts
}

// KeyFindings joins the first few summary parts.
func KeyFindings(parts []string) string {
	if len(parts) > maxKeyFindings {
		parts = parts[:maxKeyFindings]
	}
	if joined := strings.Join(parts, "; "); joined != "" {
		return joined
	}
	return KeyFindingsPlaceholder
}

// leadingSentences returns the first n sentences of text. Sentences end at
// '.', '!' or '?' followed by whitespace. When that yields nothing the
// trimmed text is returned.
func leadingSentences(text string, n int) string {
	raw := strings.TrimSpace(text)
	sentences := splitSentences(raw)
	if len(sentences) > n {
		sentences = sentences[:n]
	}
	if joined := strings.TrimSpace(strings.Join(sentences, " ")); joined != "" {
		return joined
	}
	return raw
}

func splitSentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i
		for j < len(s) {
			ws, wsize := utf8.DecodeRuneInString(s[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += wsize
		}
		if j == i {
			continue
		}
		out = append(out, s[start:i])
		start, i = j, j
	}
	return append(out, s[start:])
}

// truncate bounds s to limit characters, ending cut text with an ellipsis.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := strings.TrimRightFunc(string(runes[:limit-len(ellipsis)]), unicode.IsSpace)
	return cut + ellipsis
}

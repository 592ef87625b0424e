package summarize

import "strings"

// Sections maps a lower-cased section label to its trimmed value.
type Sections map[string]string

type scanState int

const (
	expectOpenMarker scanState = iota
	readingLabel
	expectCloseMarker
	readingValue
)

const marker = "**"

// Extract pulls emphasized "**Label:** value" pairs out of free text.
//
// The scanner walks the text once. A label runs from an opening "**" to the
// next "**" and may not span a line break. A colon directly inside or after
// the closing marker is dropped. The value runs until the next "**" or the
// end of the text. Pairs whose value is empty are ignored, and a later pair
// with the same label replaces an earlier one.
func Extract(text string) Sections {
	sections := make(Sections)

	state := expectOpenMarker
	labelStart, valueStart := 0, 0
	var label string

	for i := 0; i <= len(text); {
		switch state {
		case expectOpenMarker:
			j := strings.Index(text[i:], marker)
			if j < 0 {
				return sections
			}
			i += j + len(marker)
			labelStart = i
			state = readingLabel

		case readingLabel:
			j := strings.Index(text[i:], marker)
			if j < 0 {
				return sections
			}
			if nl := strings.IndexByte(text[i:i+j], '\n'); nl >= 0 {
				// Labels are single-line; restart from the line break.
				i += nl + 1
				state = expectOpenMarker
				continue
			}
			label = text[labelStart : i+j]
			i += j
			state = expectCloseMarker

		case expectCloseMarker:
			i += len(marker)
			i = skipSeparator(text, i)
			valueStart = i
			state = readingValue

		case readingValue:
			end := len(text)
			if j := strings.Index(text[i:], marker); j >= 0 {
				end = i + j
			}
			key := normalizeLabel(label)
			value := strings.TrimSpace(text[valueStart:end])
			if key != "" && value != "" {
				sections[key] = value
			}
			if end == len(text) {
				return sections
			}
			// The closing marker of this value opens the next label.
			i = end
			state = expectOpenMarker
		}
	}
	return sections
}

// skipSeparator advances past whitespace, one optional colon, and more
// whitespace.
func skipSeparator(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	if i < len(text) && text[i] == ':' {
		i++
	}
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

func normalizeLabel(raw string) string {
	label := strings.TrimSpace(raw)
	label = strings.TrimSuffix(label, ":")
	return strings.ToLower(strings.TrimSpace(label))
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

package chunker

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Normalize canonicalizes extracted text before chunking: NFC composition,
// LF line endings, no NUL bytes or invalid UTF-8, at most one blank line in a
// row, and no leading or trailing whitespace.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

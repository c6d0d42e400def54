package normalize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Inline styles pasted from Word survive as text once tags are gone.
	msoStyle = regexp.MustCompile(`(?i)mso-[a-z-]+\s*:\s*[^;"'<>]*;?`)
	// Conditional comments and XML islands from Office exports.
	officeBlock = regexp.MustCompile(`(?is)<!--\[if.*?<!\[endif\]-->|<xml>.*?</xml>`)
	blockTag    = regexp.MustCompile(`(?i)<(/?(?:p|div|br|li|ul|ol|tr|td|th|h[1-6]|table)\b)`)
	nonWord     = regexp.MustCompile(`[^\w]`)
)

var artifactReplacer = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u200b", "", // zero-width space
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
	"\u2018", "'", "\u2019", "'",
	"\u201c", `"`, "\u201d", `"`,
	"\u2013", "-", "\u2014", "-",
	"\u2026", "...",
	"\r", " ",
)

// textCleaner strips markup from free text.
type textCleaner struct {
	policy *bluemonday.Policy
}

func newTextCleaner() *textCleaner {
	return &textCleaner{policy: bluemonday.StrictPolicy()}
}

// clean returns s without markup, entities or editor artifacts, with runs of
// whitespace collapsed. It returns "" when nothing meaningful remains.
func (c *textCleaner) clean(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	// Records are often double-escaped ("&lt;p&gt;"), so decode before
	// sanitizing and decode again what the sanitizer re-escapes.
	s = html.UnescapeString(s)
	s = officeBlock.ReplaceAllString(s, " ")
	s = blockTag.ReplaceAllString(s, " <$1")
	s = c.policy.Sanitize(s)
	s = html.UnescapeString(s)
	s = msoStyle.ReplaceAllString(s, " ")
	s = artifactReplacer.Replace(s)
	return collapse(s)
}

// collapse trims s and reduces internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeID replaces every non-word character of id with an underscore.
func SanitizeID(id string) string {
	return nonWord.ReplaceAllString(strings.TrimSpace(id), "_")
}

// Label canonicalizes a shared entity name (publisher, tag, theme) for use
// as its identity: whitespace collapsed then replaced by underscores.
func Label(name string) string {
	return strings.ReplaceAll(collapse(name), " ", "_")
}

// StripHTML removes markup and decodes entities. It is exported for the
// evaluation harness, which cleans ground-truth descriptions the same way.
func StripHTML(s string) string {
	return defaultCleaner.clean(s)
}

var defaultCleaner = newTextCleaner()

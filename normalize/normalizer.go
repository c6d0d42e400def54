package normalize

import (
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/poiesic/datakg/core"
)

// Normalizer converts raw records into canonical datasets. It is stateless
// and safe for concurrent use.
type Normalizer struct {
	cleaner *textCleaner
	logger  *slog.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used for substitution diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		cleaner: newTextCleaner(),
		logger:  slog.Default().With("component", "normalizer"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the canonical form of raw. It never fails.
func (n *Normalizer) Normalize(raw core.RawRecord) core.Dataset {
	d, _ := n.NormalizeWithReport(raw)
	return d
}

// NormalizeWithReport returns the canonical form of raw together with one
// error per substituted field. Every reported error wraps core.ErrInput.
func (n *Normalizer) NormalizeWithReport(raw core.RawRecord) (core.Dataset, []error) {
	var issues []error
	substituted := func(field string) {
		issues = append(issues, core.NewError(core.ErrInput, "normalize "+field,
			fmt.Errorf("record %q: missing value replaced by sentinel", raw.ID)))
	}

	title := n.cleaner.clean(raw.Title)
	if title == "" {
		substituted("title")
		title = core.UnknownText
	}

	description := n.cleaner.clean(firstNonBlank(raw.Summary, raw.Description, raw.Notes))
	if description == "" {
		substituted("description")
		description = core.UnknownText
	}

	publisher := n.cleaner.clean(firstNonBlank(raw.Publisher, raw.Organization))
	if publisher == "" {
		substituted("publisher")
		publisher = core.UnknownPublisher
	}

	id := SanitizeID(raw.ID)
	if id == "" {
		substituted("id")
		id = fmt.Sprintf("dataset_%016x", uint64(core.IDFromContent(title+"\x00"+description)))
	}

	d := core.Dataset{
		ID:          id,
		Title:       title,
		Description: description,
		Publisher:   publisher,
		Tags:        n.labels(raw.Tags),
		Themes:      n.labels(raw.Groups),
		Created:     ExtractYear(raw.MetadataCreated),
		Modified:    ExtractYear(raw.MetadataModified),
		Page:        strings.TrimSpace(firstNonBlank(raw.URL, raw.DatasetPage)),
		License:     collapse(raw.License),
	}

	for i, res := range raw.Resources {
		d.Distributions = append(d.Distributions, n.distribution(id, i, res))
	}

	if len(issues) > 0 {
		n.logger.Debug("substituted sentinels", "id", id, "fields", len(issues))
	}
	return d, issues
}

// NormalizeAll normalizes a batch. Records sharing an ID after sanitation
// collapse to the last occurrence, in first-seen position.
func (n *Normalizer) NormalizeAll(raws []core.RawRecord) ([]core.Dataset, []error) {
	var issues []error
	out := make([]core.Dataset, 0, len(raws))
	pos := make(map[string]int, len(raws))
	for _, raw := range raws {
		d, errs := n.NormalizeWithReport(raw)
		issues = append(issues, errs...)
		if i, ok := pos[d.ID]; ok {
			out[i] = d
			continue
		}
		pos[d.ID] = len(out)
		out = append(out, d)
	}
	return out, issues
}

func (n *Normalizer) distribution(datasetID string, i int, res core.RawResource) core.Distribution {
	id := SanitizeID(res.ID)
	if id == "" {
		id = fmt.Sprintf("%s_r%d", datasetID, i)
	}
	format := strings.ToLower(n.cleaner.clean(res.Format))
	if format == "" {
		format = core.UnknownFormat
	}
	link := strings.TrimSpace(res.URL)
	name := n.cleaner.clean(res.Name)
	if name == "" {
		name = NameFromURL(link)
	}
	return core.Distribution{ID: id, Name: name, URL: link, Format: format}
}

// labels cleans a list of shared-entity names, dropping blanks and
// duplicates by canonical identity.
func (n *Normalizer) labels(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		clean := n.cleaner.clean(v)
		if clean == "" {
			continue
		}
		key := strings.ToLower(Label(clean))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, clean)
	}
	return out
}

// NameFromURL derives a resource name from the last path segment of a URL,
// or UnknownName when there is none.
func NameFromURL(link string) string {
	if link == "" {
		return core.UnknownName
	}
	p := link
	if u, err := url.Parse(link); err == nil {
		p = u.Path
	}
	base := path.Base(strings.TrimSuffix(p, "/"))
	if base == "." || base == "/" || base == "" {
		return core.UnknownName
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return base
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

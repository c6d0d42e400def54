package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/datakg/core"
)

// LoadGroundTruth reads ground-truth entries from a JSON or YAML file,
// chosen by extension, and validates them.
func LoadGroundTruth(path string) ([]core.GroundTruthEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewError(core.ErrNotFound, "load ground truth", err)
		}
		return nil, fmt.Errorf("failed to read ground truth: %w", err)
	}

	var entries []core.GroundTruthEntry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse JSON ground truth: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse YAML ground truth: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q (supported: .json, .yaml, .yml)", ErrUnsupportedFormat, ext)
	}

	if err := ValidateGroundTruth(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ValidateGroundTruth requires every entry to carry a unique, non-blank
// keyword. Entries with no expected datasets are allowed; they score zero.
func ValidateGroundTruth(entries []core.GroundTruthEntry) error {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		kw := strings.TrimSpace(e.Keyword)
		if kw == "" {
			return fmt.Errorf("%w: entry %d has no keyword_search", ErrInvalidGroundTruth, i)
		}
		if seen[kw] {
			return fmt.Errorf("%w: duplicate keyword %q", ErrInvalidGroundTruth, kw)
		}
		seen[kw] = true
	}
	return nil
}

// Descriptions returns the expected description texts of an entry in order.
func Descriptions(e core.GroundTruthEntry) []string {
	out := make([]string, len(e.Datasets))
	for i, d := range e.Datasets {
		out[i] = d.Description
		if out[i] == "" {
			out[i] = core.UnknownText
		}
	}
	return out
}

package ingestion

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/datakg/core"
)

// LoadRecords reads raw records from a JSON array (.json), JSON lines
// (.jsonl, .ndjson) or YAML (.yaml, .yml) file.
func LoadRecords(path string) ([]core.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewError(core.ErrNotFound, "load records", err)
		}
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []core.RawRecord
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, core.NewError(core.ErrInput, "parse records", err)
		}
	case ".jsonl", ".ndjson":
		records, err = decodeLines(data)
		if err != nil {
			return nil, core.NewError(core.ErrInput, "parse records", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, core.NewError(core.ErrInput, "parse records", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return records, nil
}

func decodeLines(data []byte) ([]core.RawRecord, error) {
	var records []core.RawRecord
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var r core.RawRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
	}
	return records, sc.Err()
}

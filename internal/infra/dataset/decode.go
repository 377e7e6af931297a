package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/faq-vectorstore/internal/domain/faq"
)

var fileFormats = []string{".jsonl", ".json", ".yaml", ".yml"}

func hasFileFormat(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, f := range fileFormats {
		if f == ext {
			return true
		}
	}
	return false
}

// decodeRecords parses a dataset file. JSON and YAML documents may be a list
// of records or a mapping whose "rows" key holds that list.
func decodeRecords(name string, data []byte) ([]faq.Record, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".jsonl":
		return decodeJSONLines(data)
	case ".json":
		return decodeDocument(data, json.Unmarshal)
	case ".yaml", ".yml":
		return decodeDocument(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", ext)
	}
}

func decodeDocument(data []byte, unmarshal func([]byte, any) error) ([]faq.Record, error) {
	var list []map[string]any
	if err := unmarshal(data, &list); err == nil {
		return toRecords(list), nil
	}
	var wrapped struct {
		Rows []map[string]any `json:"rows" yaml:"rows"`
	}
	if err := unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return toRecords(wrapped.Rows), nil
}

func decodeJSONLines(data []byte) ([]faq.Record, error) {
	var out []faq.Record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode dataset line %d: %w", line, err)
		}
		out = append(out, faq.Record(rec))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return out, nil
}

func toRecords(rows []map[string]any) []faq.Record {
	out := make([]faq.Record, len(rows))
	for i, row := range rows {
		out[i] = faq.Record(row)
	}
	return out
}

package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PlainTextParser reads text-like formats verbatim.
type PlainTextParser struct{}

func (p *PlainTextParser) Extensions() []string {
	return []string{".txt", ".log", ".rst", ".adoc"}
}

func (p *PlainTextParser) Name() string { return "text" }

func (p *PlainTextParser) Parse(_ string, data []byte) (string, map[string]string, error) {
	return string(data), nil, nil
}

// CSVParser serializes tabular data into readable "field: value" lines,
// one block per record, using the header row for field names.
type CSVParser struct{}

func (p *CSVParser) Extensions() []string { return []string{".csv"} }

func (p *CSVParser) Name() string { return "csv" }

func (p *CSVParser) Parse(path string, data []byte) (string, map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", nil, fmt.Errorf("csv %s: %w", path, err)
	}
	if len(records) == 0 {
		return "", nil, nil
	}

	header := records[0]
	var b strings.Builder
	for _, record := range records[1:] {
		for i, field := range record {
			name := fmt.Sprintf("column %d", i+1)
			if i < len(header) {
				name = header[i]
			}
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(field)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	meta := map[string]string{"columns": strings.Join(header, ", ")}
	return strings.TrimSpace(b.String()), meta, nil
}

// JSONParser renders structured data as indented "key: value" text so
// field names survive into the embedded representation.
type JSONParser struct{}

func (p *JSONParser) Extensions() []string { return []string{".json"} }

func (p *JSONParser) Name() string { return "json" }

func (p *JSONParser) Parse(path string, data []byte) (string, map[string]string, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return "", nil, fmt.Errorf("json %s: %w", path, err)
	}
	var b strings.Builder
	renderJSON(&b, value, 0)
	return strings.TrimSpace(b.String()), nil, nil
}

func renderJSON(b *strings.Builder, value any, depth int) {
	indent := strings.Repeat("  ", depth)
	switch val := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch val[k].(type) {
			case map[string]any, []any:
				b.WriteString(indent + k + ":\n")
				renderJSON(b, val[k], depth+1)
			default:
				b.WriteString(indent + k + ": " + scalarString(val[k]) + "\n")
			}
		}
	case []any:
		for _, item := range val {
			switch item.(type) {
			case map[string]any, []any:
				b.WriteString(indent + "-\n")
				renderJSON(b, item, depth+1)
			default:
				b.WriteString(indent + "- " + scalarString(item) + "\n")
			}
		}
	default:
		b.WriteString(indent + scalarString(val) + "\n")
	}
}

func scalarString(v any) string {
	if v == nil {
		return "null"
	}
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}

package loader

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// frontMatterDelim marks the start and end of a YAML front matter block.
const frontMatterDelim = "---"

// MarkdownParser reads markdown files verbatim, parsing an optional
// leading YAML front matter block into metadata and stripping it from
// the body.
type MarkdownParser struct{}

func (p *MarkdownParser) Extensions() []string { return []string{".md", ".markdown"} }

func (p *MarkdownParser) Name() string { return "markdown" }

func (p *MarkdownParser) Parse(path string, data []byte) (string, map[string]string, error) {
	body, header := splitFrontMatter(string(data))
	meta := make(map[string]string)
	if header != "" {
		var raw map[string]any
		if err := yaml.Unmarshal([]byte(header), &raw); err != nil {
			return "", nil, fmt.Errorf("front matter in %s: %w", path, err)
		}
		for k, v := range raw {
			meta[k] = flattenValue(v)
		}
	}
	return body, meta, nil
}

// splitFrontMatter separates a leading front matter block from the body.
// The block must begin on the first line, and the closing delimiter must
// sit alone on its own line. The block is returned without its
// delimiters; content without a block is returned unchanged.
func splitFrontMatter(content string) (body, header string) {
	rest, ok := strings.CutPrefix(content, frontMatterDelim+"\n")
	if !ok {
		return content, ""
	}
	if header, body, ok = strings.Cut(rest, "\n"+frontMatterDelim+"\n"); ok {
		return body, header
	}
	if header, ok = strings.CutSuffix(rest, "\n"+frontMatterDelim); ok {
		return "", header
	}
	return content, ""
}

// flattenValue renders a front matter value as a single string.
// Sequences become comma-separated lists, mappings "key=value" pairs in
// key order, so metadata stays both printable and stable across loads.
func flattenValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = flattenValue(item)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + flattenValue(val[k])
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", val)
	}
}

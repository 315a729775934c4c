// Package loader walks a directory tree and extracts plain text plus
// metadata from every supported file. Parsing is dispatched per file
// extension through the Parser interface, one implementation per format.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docchat/internal/domain"
	"docchat/internal/logger"
)

// Parser extracts normalized text and metadata from one file format.
type Parser interface {
	// Extensions lists the lowercase file extensions this parser handles,
	// including the leading dot.
	Extensions() []string

	// Name is the file-type tag recorded on produced documents.
	Name() string

	// Parse converts raw file bytes into plain text and metadata.
	Parse(path string, data []byte) (string, map[string]string, error)
}

// Loader produces documents from a directory tree.
type Loader struct {
	parsers map[string]Parser
}

// New creates a loader dispatching to the given parsers. Later parsers
// win when two claim the same extension.
func New(parsers ...Parser) *Loader {
	byExt := make(map[string]Parser)
	for _, p := range parsers {
		for _, ext := range p.Extensions() {
			byExt[ext] = p
		}
	}
	return &Loader{parsers: byExt}
}

// Default creates a loader with all built-in format parsers registered.
func Default() *Loader {
	return New(
		&PlainTextParser{},
		&MarkdownParser{},
		&CSVParser{},
		&JSONParser{},
		&DocxParser{},
		NewPDFParser(),
	)
}

// Load walks root in lexicographic path order and returns one document
// per successfully parsed file. Unsupported files are ignored and a
// single file's parse failure only skips that file, so repeated loads
// of an unchanged tree yield identical document sequences.
func (l *Loader) Load(root string) ([]domain.Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("documents directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents directory %s: not a directory", root)
	}

	var docs []domain.Document
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		parser, ok := l.parsers[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		text, meta, err := parser.Parse(path, data)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			return nil
		}
		if meta == nil {
			meta = make(map[string]string)
		}
		meta["source"] = path
		meta["filename"] = filepath.Base(path)
		docs = append(docs, domain.Document{
			Path:     path,
			Content:  text,
			FileType: parser.Name(),
			Metadata: meta,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("loaded %d documents from %s", len(docs), root)
	return docs, nil
}

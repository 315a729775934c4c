package index

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"docchat/internal/domain"
)

// artifact is the on-disk layout of a persisted index: the fingerprint
// followed by every embedded chunk in insertion order. The byte format
// is private to this package.
type artifact struct {
	Fingerprint Fingerprint
	Entries     []domain.EmbeddedChunk
}

// Save persists the full index to a single artifact at path. The
// artifact is written to a temp file and renamed into place, so a
// crashed or failed save never replaces an existing artifact with a
// partial one.
func (ix *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("index save: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("index save: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := gob.NewEncoder(tmp)
	if err := enc.Encode(artifact{Fingerprint: ix.fingerprint, Entries: ix.entries}); err != nil {
		tmp.Close()
		return fmt.Errorf("index save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("index save: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads a persisted index and validates it against the current
// embedding model. A missing, unreadable, or mismatched artifact
// surfaces domain.ErrIndexIntegrity so the caller rebuilds instead of
// serving incompatible vectors.
func Load(path, model string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrIndexIntegrity, path, err)
	}
	defer f.Close()

	var art artifact
	if err := gob.NewDecoder(f).Decode(&art); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrIndexIntegrity, path, err)
	}
	if art.Fingerprint.Model != model {
		return nil, fmt.Errorf("%w: artifact built with model %s, config wants %s", domain.ErrIndexIntegrity, art.Fingerprint, model)
	}

	ix := &Index{fingerprint: art.Fingerprint, entries: art.Entries}
	if len(art.Entries) == 0 {
		return ix, nil
	}
	ix.norms = make([]float64, len(art.Entries))
	for i, entry := range art.Entries {
		if len(entry.Vector) != art.Fingerprint.Dimension {
			return nil, fmt.Errorf("%w: entry %d has dimension %d, fingerprint says %d", domain.ErrIndexIntegrity, i, len(entry.Vector), art.Fingerprint.Dimension)
		}
		ix.norms[i] = norm(entry.Vector)
	}
	return ix, nil
}

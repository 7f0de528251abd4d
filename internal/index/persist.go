package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// FileName is the index file inside the index directory
const FileName = "index.json.zst"

const formatVersion = 1

type snapshot struct {
	Version int     `json:"version"`
	Dim     int     `json:"dim"`
	Entries []Entry `json:"entries"`
}

// Save writes the index as zstd-compressed JSON, replacing path atomically
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	snap := snapshot{Version: formatVersion, Dim: ix.dim, Entries: ix.entries}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*.zst")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	encoder, err := zstd.NewWriter(tmp)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("create zstd encoder: %w", err)
	}

	if err := json.NewEncoder(encoder).Encode(snap); err != nil {
		encoder.Close()
		_ = tmp.Close()
		return fmt.Errorf("encode index: %w", err)
	}

	if err := encoder.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("finalize compression: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// Load reads an index written by Save. A missing file yields an empty index and false.
func Load(path string) (*Index, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = f.Close() }()

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, false, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	var snap snapshot
	if err := json.NewDecoder(decoder).Decode(&snap); err != nil {
		return nil, false, fmt.Errorf("decode index: %w", err)
	}
	if snap.Version != formatVersion {
		return nil, false, fmt.Errorf("unsupported index version %d (want %d)", snap.Version, formatVersion)
	}

	ix := New()
	if err := ix.Add(snap.Entries...); err != nil {
		return nil, false, fmt.Errorf("rebuild index: %w", err)
	}
	return ix, true, nil
}

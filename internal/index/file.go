package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
)

// File names inside an index directory.
const (
	VectorsFile  = "index.bin"
	MetadataFile = "metadata.json"
)

// Entry is the per-vector metadata record, stored in insertion order.
type Entry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Client      string `json:"client,omitempty"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
}

// Save writes index.bin and metadata.json into dir.
// entries must align with the index: same length, same id order.
func Save(dir string, f *Flat, entries []Entry) error {
	if err := checkAligned(f.ids, entries); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	meta, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeFile(filepath.Join(dir, VectorsFile), f.MarshalBinary()); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, MetadataFile), meta)
}

// Open loads both files from dir. Missing, corrupt or misaligned files fail
// with *domain.DataLoadError.
func Open(dir string) (*Flat, []Entry, error) {
	vecPath := filepath.Join(dir, VectorsFile)
	metaPath := filepath.Join(dir, MetadataFile)

	raw, err := os.ReadFile(filepath.Clean(vecPath))
	if err != nil {
		return nil, nil, domain.NewDataLoadError(vecPath, 0, err)
	}
	f, err := UnmarshalFlat(raw)
	if err != nil {
		return nil, nil, domain.NewDataLoadError(vecPath, 0, err)
	}

	metaRaw, err := os.ReadFile(filepath.Clean(metaPath))
	if err != nil {
		return nil, nil, domain.NewDataLoadError(metaPath, 0, err)
	}
	var entries []Entry
	if err := json.Unmarshal(metaRaw, &entries); err != nil {
		return nil, nil, domain.NewDataLoadError(metaPath, 0, fmt.Errorf("decode metadata: %w", err))
	}
	if err := checkAligned(f.ids, entries); err != nil {
		return nil, nil, domain.NewDataLoadError(metaPath, 0, err)
	}
	return f, entries, nil
}

type storyLookup interface {
	Position(id string) (int, bool)
}

// VerifyCorpus checks that every metadata id resolves in the corpus.
func VerifyCorpus(entries []Entry, corpus storyLookup) error {
	var missing []string
	for _, e := range entries {
		if _, ok := corpus.Position(e.ID); !ok {
			missing = append(missing, e.ID)
		}
	}
	if len(missing) > 0 {
		return domain.NewDataLoadError(MetadataFile, 0,
			fmt.Errorf("%d indexed ids not in corpus, first %q", len(missing), missing[0]))
	}
	return nil
}

func checkAligned(ids []string, entries []Entry) error {
	if len(ids) != len(entries) {
		return fmt.Errorf("index has %d vectors but metadata has %d entries", len(ids), len(entries))
	}
	for i := range ids {
		if ids[i] != entries[i].ID {
			return fmt.Errorf("metadata entry %d id %q does not match vector id %q", i, entries[i].ID, ids[i])
		}
	}
	return nil
}

// MarshalBinary encodes dim u32, n u32, then per item idLen u32, id, float32[dim].
// All integers and floats are little-endian.
func (f *Flat) MarshalBinary() []byte {
	size := 8
	for _, id := range f.ids {
		size += 4 + len(id) + 4*f.dim
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(f.dim))      //nolint:gosec // dim fits in u32
	out = binary.LittleEndian.AppendUint32(out, uint32(len(f.ids))) //nolint:gosec // count fits in u32
	for i, id := range f.ids {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id))) //nolint:gosec // id length fits in u32
		out = append(out, id...)
		for _, v := range f.vecs[i] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out
}

var errTruncated = errors.New("index file truncated")

// UnmarshalFlat decodes the format written by MarshalBinary.
func UnmarshalFlat(data []byte) (*Flat, error) {
	off := 0
	u32 := func() (int, error) {
		if off+4 > len(data) {
			return 0, errTruncated
		}
		v := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return int(v), nil
	}

	dim, err := u32()
	if err != nil {
		return nil, err
	}
	n, err := u32()
	if err != nil {
		return nil, err
	}
	if n > len(data)/4 {
		return nil, errTruncated
	}
	ids := make([]string, 0, n)
	vecs := make([][]float32, 0, n)
	for range n {
		idLen, err := u32()
		if err != nil {
			return nil, err
		}
		if off+idLen+4*dim > len(data) {
			return nil, errTruncated
		}
		ids = append(ids, string(data[off:off+idLen]))
		off += idLen
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vecs = append(vecs, vec)
	}
	if off != len(data) {
		return nil, fmt.Errorf("index file has %d trailing bytes", len(data)-off)
	}
	return Build(ids, vecs)
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

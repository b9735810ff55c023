package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cyberguard/internal/models"
)

// Snapshot layout: <prefix>.index holds the vectors as a little-endian binary
// blob behind a magic/version header; <prefix>_data holds the aligned
// document sequence as JSON. Both files must agree on the document count.
const (
	snapshotMagic   = "CGVI"
	snapshotVersion = 1
)

// ErrSnapshotFormat wraps snapshot files whose magic or version is not
// understood.
type ErrSnapshotFormat struct {
	Path   string
	Detail string
}

func (e *ErrSnapshotFormat) Error() string {
	return fmt.Sprintf("snapshot %s: %s", e.Path, e.Detail)
}

type dataBlob struct {
	Version   int               `json:"version"`
	Documents []models.Document `json:"documents"`
}

// Save writes the index state as a file pair at the given path prefix,
// creating parent directories as needed.
func (ix *Index) Save(prefix string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.vectors == nil {
		return ErrNotBuilt
	}
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("snapshot dir: %w", err)
		}
	}
	if err := ix.writeIndexBlob(prefix + ".index"); err != nil {
		return err
	}
	b, err := json.Marshal(dataBlob{Version: snapshotVersion, Documents: ix.docs})
	if err != nil {
		return fmt.Errorf("marshal snapshot data: %w", err)
	}
	if err := os.WriteFile(prefix+"_data", b, 0o644); err != nil {
		return fmt.Errorf("write snapshot data: %w", err)
	}
	return nil
}

func (ix *Index) writeIndexBlob(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write snapshot index: %w", err)
	}
	w := bufio.NewWriter(f)
	_, _ = w.WriteString(snapshotMagic)
	hdr := []uint32{snapshotVersion, uint32(ix.dim), uint32(len(ix.vectors))}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("write snapshot index: %w", err)
		}
	}
	for _, vec := range ix.vectors {
		if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
			f.Close()
			return fmt.Errorf("write snapshot index: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write snapshot index: %w", err)
	}
	return f.Close()
}

// Load restores a snapshot written by Save into this index, replacing any
// existing state. A restored index answers searches identically to the
// pre-save instance.
func (ix *Index) Load(prefix string) error {
	dim, vectors, err := readIndexBlob(prefix + ".index")
	if err != nil {
		return err
	}
	db, err := os.ReadFile(prefix + "_data")
	if err != nil {
		return fmt.Errorf("read snapshot data: %w", err)
	}
	var data dataBlob
	if err := json.Unmarshal(db, &data); err != nil {
		return fmt.Errorf("decode snapshot data: %w", err)
	}
	if data.Version != snapshotVersion {
		return &ErrSnapshotFormat{Path: prefix + "_data", Detail: fmt.Sprintf("unsupported version %d", data.Version)}
	}
	if len(data.Documents) != len(vectors) {
		return &ErrSnapshotFormat{Path: prefix, Detail: fmt.Sprintf("document count %d does not match vector count %d", len(data.Documents), len(vectors))}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = dim
	ix.vectors = vectors
	ix.docs = data.Documents
	return nil
}

func readIndexBlob(path string) (int, [][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read snapshot index: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != snapshotMagic {
		return 0, nil, &ErrSnapshotFormat{Path: path, Detail: "bad magic"}
	}
	var version, dim, count uint32
	for _, p := range []*uint32{&version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return 0, nil, &ErrSnapshotFormat{Path: path, Detail: "truncated header"}
		}
	}
	if version != snapshotVersion {
		return 0, nil, &ErrSnapshotFormat{Path: path, Detail: fmt.Sprintf("unsupported version %d", version)}
	}
	// the header must account for the file's exact size before any
	// count-driven allocation happens
	info, err := f.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("read snapshot index: %w", err)
	}
	headerSize := int64(len(snapshotMagic)) + 3*4
	if want := headerSize + int64(count)*int64(dim)*4; info.Size() != want {
		return 0, nil, &ErrSnapshotFormat{Path: path, Detail: fmt.Sprintf("size %d does not match header (%d vectors of dimension %d)", info.Size(), count, dim)}
	}
	vectors := make([][]float32, count)
	for i := range vectors {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return 0, nil, &ErrSnapshotFormat{Path: path, Detail: "truncated vectors"}
		}
		vectors[i] = vec
	}
	return int(dim), vectors, nil
}

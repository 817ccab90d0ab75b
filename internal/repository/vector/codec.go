package vector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Index file layout (little-endian): magic, version, dimension and row count
// as uint32, followed by count*dimension raw float32 values.
const (
	indexMagic   uint32 = 0x52434C31 // "RCL1"
	indexVersion uint32 = 1
)

type indexHeader struct {
	Magic     uint32
	Version   uint32
	Dimension uint32
	Count     uint32
}

func writeIndexFile(path string, dim int, vectors [][]float32) error {
	return writeFileAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		header := indexHeader{
			Magic:     indexMagic,
			Version:   indexVersion,
			Dimension: uint32(dim),
			Count:     uint32(len(vectors)),
		}
		if err := binary.Write(w, binary.LittleEndian, header); err != nil {
			return err
		}
		for _, vec := range vectors {
			if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}

func readIndexFile(path string, dim int) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var header indexHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Magic != indexMagic {
		return nil, fmt.Errorf("bad magic %#x", header.Magic)
	}
	if header.Version != indexVersion {
		return nil, fmt.Errorf("unsupported version %d", header.Version)
	}
	if int(header.Dimension) != dim {
		return nil, fmt.Errorf("dimension %d, want %d", header.Dimension, dim)
	}

	vectors := make([][]float32, header.Count)
	for i := range vectors {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("read vector %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Metadata is a sibling JSON file mapping stringified integer id to the
// document fields, the layout the browser extension's export understands.
func writeMetaFile(path string, records []record) error {
	meta := make(map[string]record, len(records))
	for i, rec := range records {
		meta[strconv.Itoa(i)] = rec
	}
	return writeFileAtomic(path, func(f *os.File) error {
		return json.NewEncoder(f).Encode(meta)
	})
}

func readMetaFile(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := make(map[string]record)
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	records := make([]record, len(meta))
	for key, rec := range meta {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id >= len(meta) {
			return nil, fmt.Errorf("metadata id %q out of range", key)
		}
		records[id] = rec
	}
	return records, nil
}

func loadSnapshot(indexPath, metaPath string, dim int) ([][]float32, []record, error) {
	vectors, err := readIndexFile(indexPath, dim)
	if err != nil {
		return nil, nil, err
	}
	records, err := readMetaFile(metaPath)
	if err != nil {
		return nil, nil, err
	}
	if len(vectors) != len(records) {
		return nil, nil, fmt.Errorf("index has %d vectors but metadata has %d records", len(vectors), len(records))
	}
	return vectors, records, nil
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it over path, so readers never observe a partial snapshot.
func writeFileAtomic(path string, write func(*os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package cache

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/depchain/pkg/safeconv"
)

const (
	entryExtension = ".lz4"
	headerSize     = 5 // flag byte + uint32 uncompressed length.
	shardPrefixLen = 2
	dirPerm        = 0o755

	flagRaw        byte = 0
	flagCompressed byte = 1
)

// Disk persists gob-encoded values as LZ4-compressed files, sharded by key prefix.
type Disk[V any] struct {
	dir     string
	hits    atomic.Int64
	misses  atomic.Int64
	entries atomic.Int64
}

// NewDisk creates a disk cache rooted at dir, creating it if needed.
func NewDisk[V any](dir string) (*Disk[V], error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Disk[V]{dir: dir}, nil
}

// Dir returns the cache root.
func (d *Disk[V]) Dir() string {
	return d.dir
}

// Get implements Store. Unreadable or corrupt entries count as misses.
func (d *Disk[V]) Get(key string) (V, bool) {
	var value V

	data, err := os.ReadFile(d.path(key))
	if err != nil {
		d.misses.Add(1)

		return value, false
	}

	value, err = decodeEntry[V](data)
	if err != nil {
		d.misses.Add(1)

		return value, false
	}

	d.hits.Add(1)

	return value, true
}

// Put implements Store. The entry is written to a temporary file and renamed into place.
func (d *Disk[V]) Put(key string, value V) error {
	data, err := encodeEntry(value)
	if err != nil {
		return err
	}

	target := d.path(key)

	err = os.MkdirAll(filepath.Dir(target), dirPerm)
	if err != nil {
		return fmt.Errorf("create shard dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "entry-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()

	if writeErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write entry: %w", errors.Join(writeErr, closeErr))
	}

	err = os.Rename(tmp.Name(), target)
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("commit entry: %w", err)
	}

	d.entries.Add(1)

	return nil
}

// Stats implements Store. Entries counts writes made by this process.
func (d *Disk[V]) Stats() Stats {
	return Stats{
		Hits:    d.hits.Load(),
		Misses:  d.misses.Load(),
		Entries: int(d.entries.Load()),
	}
}

// Clear removes every entry.
func (d *Disk[V]) Clear() error {
	err := filepath.WalkDir(d.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() || filepath.Ext(path) != entryExtension {
			return nil
		}

		return os.Remove(path)
	})
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	d.entries.Store(0)

	return nil
}

type diskEntry struct {
	path    string
	size    int64
	modTime int64
}

func (d *Disk[V]) list() ([]diskEntry, error) {
	var entries []diskEntry

	err := filepath.WalkDir(d.dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if entry.IsDir() || filepath.Ext(path) != entryExtension {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		entries = append(entries, diskEntry{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list cache: %w", err)
	}

	return entries, nil
}

// Size returns the bytes used by all entries.
func (d *Disk[V]) Size() (uint64, error) {
	entries, err := d.list()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, entry := range entries {
		total += safeconv.MustInt64ToUint64(entry.size)
	}

	return total, nil
}

// Prune removes the least recently written entries until the cache fits in
// maxBytes. Zero means unbounded.
func (d *Disk[V]) Prune(maxBytes uint64) (int, error) {
	if maxBytes == 0 {
		return 0, nil
	}

	entries, err := d.list()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, entry := range entries {
		total += safeconv.MustInt64ToUint64(entry.size)
	}

	slices.SortFunc(entries, func(a, b diskEntry) int { return cmp.Compare(a.modTime, b.modTime) })

	removed := 0

	for _, entry := range entries {
		if total <= maxBytes {
			break
		}

		err = os.Remove(entry.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("prune cache: %w", err)
		}

		total -= safeconv.MustInt64ToUint64(entry.size)
		removed++
	}

	return removed, nil
}

func (d *Disk[V]) path(key string) string {
	shard := key
	if len(shard) > shardPrefixLen {
		shard = shard[:shardPrefixLen]
	}

	return filepath.Join(d.dir, shard, key+entryExtension)
}

func encodeEntry[V any](value V) ([]byte, error) {
	var raw bytes.Buffer

	err := gob.NewEncoder(&raw).Encode(value)
	if err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}

	src := raw.Bytes()
	out := make([]byte, headerSize+lz4.CompressBlockBound(len(src)))
	binary.LittleEndian.PutUint32(out[1:headerSize], safeconv.MustIntToUint32(len(src)))

	written, err := lz4.CompressBlock(src, out[headerSize:], nil)
	if err != nil || written == 0 {
		out[0] = flagRaw

		return append(out[:headerSize], src...), nil
	}

	out[0] = flagCompressed

	return out[:headerSize+written], nil
}

func decodeEntry[V any](data []byte) (V, error) {
	var value V

	if len(data) < headerSize {
		return value, ErrCorruptEntry
	}

	size := binary.LittleEndian.Uint32(data[1:headerSize])
	payload := data[headerSize:]

	switch data[0] {
	case flagRaw:
	case flagCompressed:
		decompressed := make([]byte, size)

		n, err := lz4.UncompressBlock(payload, decompressed)
		if err != nil {
			return value, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
		}

		payload = decompressed[:n]
	default:
		return value, ErrCorruptEntry
	}

	err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&value)
	if err != nil {
		return value, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	return value, nil
}

package vbi

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sounkou-bioinfo/vbi/internal/interval"
)

// On-disk layout, little-endian, no padding:
//
//	magic        4 bytes  "VBI\x01"
//	version      uint32
//	sample_count int64
//	marker_count int64 (N)
//	chrom_count  int32 (C)
//	C x { name_len int32, name bytes }
//	N x chrom_id int32
//	N x position int64
//	N x offset   int64
var magic = [4]byte{'V', 'B', 'I', 0x01}

const formatVersion uint32 = 1

// maxNameLen bounds a single chromosome name; anything larger marks a
// corrupt or foreign file.
const maxNameLen = 1 << 20

// FormatError reports a truncated or malformed persisted index.
type FormatError struct {
	Path    string
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("vbi format error in %s: %s", e.Path, e.Message)
}

// WriteTo serializes the index arrays in the persisted layout.
func (x *Index) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(magic[:]); err != nil {
		return err
	}
	for _, v := range []any{
		formatVersion,
		x.sampleCount,
		int64(x.MarkerCount()),
		int32(len(x.chromNames)),
	} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, name := range x.chromNames {
		if err := binary.Write(bw, binary.LittleEndian, int32(len(name))); err != nil {
			return err
		}
		if _, err := bw.WriteString(name); err != nil {
			return err
		}
	}
	for _, arr := range []any{x.chromIDs, x.positions, x.offsets} {
		if err := binary.Write(bw, binary.LittleEndian, arr); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads a persisted index and finalizes its point-interval index.
// A missing or unreadable file is an I/O error; a short or malformed
// payload is a *FormatError.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vbi index: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat vbi index: %w", err)
	}

	x, err := readIndex(bufio.NewReader(f), path, fi.Size())
	if err != nil {
		return nil, err
	}

	// Two-phase build: every record becomes a zero-length interval,
	// then one finalize. The structure is unqueryable in between.
	x.points = interval.New()
	for i := range x.positions {
		x.points.Add(x.Chrom(i), x.positions[i], x.positions[i], i)
	}
	x.points.Index()

	return x, nil
}

// Fixed-width sizes of the persisted layout, used to bound the counts
// read from the file before anything is allocated from them.
const (
	headerBytes = 28 // magic, version, sample_count, marker_count, chrom_count
	recordBytes = 20 // chrom_id + position + offset
)

func readIndex(r io.Reader, path string, size int64) (*Index, error) {
	fail := func(msg string, args ...any) (*Index, error) {
		return nil, &FormatError{Path: path, Message: fmt.Sprintf(msg, args...)}
	}

	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return fail("short read in magic: %v", err)
	}
	if m != magic {
		return fail("bad magic %q", m[:])
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fail("short read in version: %v", err)
	}
	if version != formatVersion {
		return fail("unsupported format version %d", version)
	}

	x := &Index{}
	var markerCount int64
	var chromCount int32
	if err := binary.Read(r, binary.LittleEndian, &x.sampleCount); err != nil {
		return fail("short read in sample count: %v", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &markerCount); err != nil {
		return fail("short read in marker count: %v", err)
	}
	if markerCount < 0 {
		return fail("negative marker count %d", markerCount)
	}
	if err := binary.Read(r, binary.LittleEndian, &chromCount); err != nil {
		return fail("short read in chromosome count: %v", err)
	}
	if chromCount < 0 {
		return fail("negative chromosome count %d", chromCount)
	}

	// The counts come from the file and drive allocations, so reject
	// anything the remaining payload cannot possibly hold.
	payload := size - headerBytes
	if payload < 0 {
		payload = 0
	}
	if int64(chromCount)*4 > payload {
		return fail("chromosome count %d exceeds file size %d", chromCount, size)
	}
	if markerCount > payload/recordBytes {
		return fail("marker count %d exceeds file size %d", markerCount, size)
	}

	x.chromNames = make([]string, 0, chromCount)
	for i := int32(0); i < chromCount; i++ {
		var nameLen int32
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return fail("short read in name length %d: %v", i, err)
		}
		if nameLen < 0 || nameLen > maxNameLen {
			return fail("implausible name length %d", nameLen)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return fail("short read in chromosome name %d: %v", i, err)
		}
		x.chromNames = append(x.chromNames, string(name))
	}

	x.chromIDs = make([]int32, markerCount)
	x.positions = make([]int64, markerCount)
	x.offsets = make([]int64, markerCount)
	if err := binary.Read(r, binary.LittleEndian, x.chromIDs); err != nil {
		return fail("short read in chromosome ids: %v", err)
	}
	if err := binary.Read(r, binary.LittleEndian, x.positions); err != nil {
		return fail("short read in positions: %v", err)
	}
	if err := binary.Read(r, binary.LittleEndian, x.offsets); err != nil {
		return fail("short read in offsets: %v", err)
	}

	for i, id := range x.chromIDs {
		if id < 0 || int(id) >= len(x.chromNames) {
			return fail("record %d references unknown chromosome id %d", i, id)
		}
	}

	return x, nil
}

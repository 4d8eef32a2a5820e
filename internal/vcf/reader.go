// Package vcf provides streaming VCF reading with codec-aware seek tokens.
package vcf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/klauspost/compress/gzip"
)

// Codec identifies the compression layer of a VCF source.
type Codec int

const (
	// CodecPlain is an uncompressed text stream. Seek tokens are byte
	// offsets into the file.
	CodecPlain Codec = iota
	// CodecGzip is a plain (non-BGZF) gzip stream. Seek tokens are
	// uncompressed byte offsets; seeking re-reads from the stream start.
	CodecGzip
	// CodecBGZF is a block-compressed BGZF stream. Seek tokens are
	// virtual offsets: compressed block offset << 16 | intra-block offset.
	CodecBGZF
)

func (c Codec) String() string {
	switch c {
	case CodecGzip:
		return "gzip"
	case CodecBGZF:
		return "bgzf"
	default:
		return "plain"
	}
}

// Reader streams records from a VCF file. It exposes the current seek
// token via Tell and supports re-positioning via Seek, switching token
// semantics transparently with the source codec.
type Reader struct {
	path    string
	codec   Codec
	threads int

	file *os.File
	bg   *bgzf.Reader
	gz   *gzip.Reader
	buf  *bufio.Reader // plain and gzip paths
	pos  int64         // uncompressed bytes consumed (plain and gzip paths)

	lineNumber int
	header     *Header
}

// Open opens a VCF source, detects its codec and reads the header.
// threads is a decompression-worker hint for BGZF sources; it never
// changes record content or order.
func Open(path string, threads int) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	codec, err := detectCodec(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("detect vcf codec: %w", err)
	}

	r := &Reader{path: path, codec: codec, threads: threads, file: file}

	switch codec {
	case CodecBGZF:
		if threads < 1 {
			threads = 1
		}
		r.bg, err = bgzf.NewReader(file, threads)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open bgzf stream: %w", err)
		}
	case CodecGzip:
		r.gz, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		r.buf = bufio.NewReader(r.gz)
	default:
		r.buf = bufio.NewReader(file)
	}

	r.header, err = parseHeader(r)
	if err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// detectCodec sniffs the leading bytes of f and seeks back to the start.
// BGZF is gzip with an FEXTRA "BC" subfield in the first member header.
func detectCodec(f *os.File) (Codec, error) {
	// io.ReadFull so a legal partial read cannot leave the FEXTRA
	// bytes unread and misclassify BGZF as plain gzip. Sources shorter
	// than the probe are fine; they just cannot be BGZF.
	head := make([]byte, 18)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return CodecPlain, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return CodecPlain, err
	}
	head = head[:n]

	if len(head) < 2 || head[0] != 0x1f || head[1] != 0x8b {
		return CodecPlain, nil
	}
	if len(head) >= 18 && head[3]&0x04 != 0 && head[12] == 'B' && head[13] == 'C' {
		return CodecBGZF, nil
	}
	return CodecGzip, nil
}

// Header returns the parsed VCF header.
func (r *Reader) Header() *Header {
	return r.header
}

// Codec returns the detected source codec.
func (r *Reader) Codec() Codec {
	return r.codec
}

// Path returns the source path this reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// LineNumber returns the current line number being processed.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Tell returns the seek token for the next unread byte. For BGZF this
// is a virtual offset, otherwise an uncompressed byte offset. Tokens
// are only meaningful against a reader opened on the same file.
func (r *Reader) Tell() int64 {
	if r.codec == CodecBGZF {
		end := r.bg.LastChunk().End
		return end.File<<16 | int64(end.Block)
	}
	return r.pos
}

// Seek repositions the reader to a token previously returned by Tell.
// Plain gzip streams cannot be positioned directly, so seeking there
// restarts decompression and discards up to the target offset.
func (r *Reader) Seek(offset int64) error {
	switch r.codec {
	case CodecBGZF:
		off := bgzf.Offset{File: offset >> 16, Block: uint16(offset & 0xffff)}
		if err := r.bg.Seek(off); err != nil {
			return fmt.Errorf("bgzf seek to %d: %w", offset, err)
		}
		return nil
	case CodecGzip:
		if _, err := r.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek gzip source: %w", err)
		}
		if err := r.gz.Reset(r.file); err != nil {
			return fmt.Errorf("reset gzip stream: %w", err)
		}
		r.buf.Reset(r.gz)
		r.pos = 0
		if _, err := io.CopyN(io.Discard, r.buf, offset); err != nil {
			return fmt.Errorf("advance gzip stream to %d: %w", offset, err)
		}
		r.pos = offset
		return nil
	default:
		if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek vcf file to %d: %w", offset, err)
		}
		r.buf.Reset(r.file)
		r.pos = offset
		return nil
	}
}

// readLine returns the next line without its trailing newline.
// io.EOF is returned once the stream is exhausted.
func (r *Reader) readLine() (string, error) {
	if r.codec == CodecBGZF {
		return r.readLineBGZF()
	}

	line, err := r.buf.ReadString('\n')
	r.pos += int64(len(line))
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			r.lineNumber++
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	r.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// readLineBGZF assembles a line one byte at a time so that the
// underlying reader's LastChunk stays aligned to line boundaries,
// which is what makes Tell valid as a record seek token.
func (r *Reader) readLineBGZF() (string, error) {
	var sb strings.Builder
	var one [1]byte
	for {
		n, err := r.bg.Read(one[:])
		if n > 0 {
			if one[0] == '\n' {
				r.lineNumber++
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			sb.WriteByte(one[0])
		}
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				r.lineNumber++
				return strings.TrimRight(sb.String(), "\r"), nil
			}
			return "", err
		}
	}
}

// Next reads the next record. It returns nil, nil when the stream is
// exhausted. Empty lines are skipped.
func (r *Reader) Next() (*Record, error) {
	for {
		line, err := r.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read record line: %w", err)
		}
		if line == "" {
			continue
		}
		rec, err := parseRecord(line, r.lineNumber)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// Close releases the underlying file and any decompression state.
func (r *Reader) Close() error {
	if r.bg != nil {
		err := r.bg.Close()
		// A second close of the file is harmless.
		r.file.Close()
		return err
	}
	if r.gz != nil {
		r.gz.Close()
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

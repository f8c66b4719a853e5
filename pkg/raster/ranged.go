package raster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const blockSize = 64 << 10

// fetchFunc reads up to length bytes at off. It returns the bytes, the
// offset they start at and the total object size (-1 when unknown). Fewer
// than length bytes means the object ends there.
type fetchFunc func(ctx context.Context, off, length int64) (data []byte, start, total int64, err error)

// rangeReader is a random-access view of a remote object, read in cached
// fixed-size blocks. TIFF headers sit in a few small regions of the file, so
// only those blocks are ever transferred.
type rangeReader struct {
	ctx    context.Context
	fetch  fetchFunc
	size   int64
	pos    int64
	blocks map[int64][]byte
}

func newRangeReader(ctx context.Context, fetch fetchFunc) *rangeReader {
	return &rangeReader{ctx: ctx, fetch: fetch, size: -1, blocks: make(map[int64][]byte)}
}

func (r *rangeReader) block(i int64) ([]byte, error) {
	if b, ok := r.blocks[i]; ok {
		return b, nil
	}
	data, start, total, err := r.fetch(r.ctx, i*blockSize, blockSize)
	if err != nil {
		return nil, err
	}
	if total >= 0 {
		r.size = total
	}
	for off := int64(0); off < int64(len(data)); off += blockSize {
		end := min(off+blockSize, int64(len(data)))
		if (start+off)%blockSize == 0 {
			r.blocks[(start+off)/blockSize] = data[off:end]
		}
	}
	b, ok := r.blocks[i]
	if !ok {
		// nothing at this offset: past the end of the object
		r.blocks[i] = nil
	}
	return b, nil
}

// ReadAt implements io.ReaderAt.
func (r *rangeReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	n := 0
	for n < len(p) {
		cur := off + int64(n)
		if r.size >= 0 && cur >= r.size {
			return n, io.EOF
		}
		bi := cur / blockSize
		blk, err := r.block(bi)
		if err != nil {
			return n, err
		}
		within := cur - bi*blockSize
		if within >= int64(len(blk)) {
			return n, io.EOF
		}
		n += copy(p[n:], blk[within:])
	}
	return n, nil
}

// Read implements io.Reader.
func (r *rangeReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

// Seek implements io.Seeker.
func (r *rangeReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		if r.size < 0 {
			if _, err := r.block(0); err != nil {
				return 0, err
			}
		}
		if r.size < 0 {
			return 0, errors.New("seek from end: object size unknown")
		}
		abs = r.size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	r.pos = abs
	return abs, nil
}

// Close releases the cached blocks.
func (r *rangeReader) Close() error {
	r.blocks = nil
	return nil
}

func rangeHeader(off, length int64) string {
	return fmt.Sprintf("bytes=%d-%d", off, off+length-1)
}

// parseContentRange reads "bytes 0-65535/1234567" (or "bytes */1234567").
func parseContentRange(s string) (start, total int64, err error) {
	s = strings.TrimSpace(s)
	rest, ok := strings.CutPrefix(s, "bytes ")
	if !ok {
		return 0, -1, fmt.Errorf("invalid content range %q", s)
	}
	span, size, ok := strings.Cut(rest, "/")
	if !ok {
		return 0, -1, fmt.Errorf("invalid content range %q", s)
	}
	total = -1
	if size != "*" {
		if total, err = strconv.ParseInt(size, 10, 64); err != nil {
			return 0, -1, fmt.Errorf("invalid content range %q: %w", s, err)
		}
	}
	if span == "*" {
		return 0, total, nil
	}
	first, _, ok := strings.Cut(span, "-")
	if !ok {
		return 0, -1, fmt.Errorf("invalid content range %q", s)
	}
	if start, err = strconv.ParseInt(first, 10, 64); err != nil {
		return 0, -1, fmt.Errorf("invalid content range %q: %w", s, err)
	}
	return start, total, nil
}

package raster

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/robert-malhotra/fmi-stac-sync/pkg/stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	typeShort  uint16 = 3
	typeDouble uint16 = 12
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func shortEntry(tag uint16, vals ...uint16) tiffEntry {
	buf := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return tiffEntry{tag: tag, typ: typeShort, count: uint32(len(vals)), data: buf}
}

func doubleEntry(tag uint16, vals ...float64) tiffEntry {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return tiffEntry{tag: tag, typ: typeDouble, count: uint32(len(vals)), data: buf}
}

// buildTIFF writes a little-endian TIFF holding a single IFD with the given
// entries. Values longer than four bytes go after the IFD.
func buildTIFF(entries ...tiffEntry) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	le := binary.LittleEndian
	ifdSize := 2 + 12*len(entries) + 4
	dataOff := 8 + ifdSize

	var head, extra bytes.Buffer
	head.WriteString("II")
	binary.Write(&head, le, uint16(42))
	binary.Write(&head, le, uint32(8))
	binary.Write(&head, le, uint16(len(entries)))

	for _, e := range entries {
		binary.Write(&head, le, e.tag)
		binary.Write(&head, le, e.typ)
		binary.Write(&head, le, e.count)
		if len(e.data) <= 4 {
			var inline [4]byte
			copy(inline[:], e.data)
			head.Write(inline[:])
			continue
		}
		binary.Write(&head, le, uint32(dataOff+extra.Len()))
		extra.Write(e.data)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	binary.Write(&head, le, uint32(0))
	return append(head.Bytes(), extra.Bytes()...)
}

func baseEntries() []tiffEntry {
	return []tiffEntry{
		shortEntry(256, 100),
		shortEntry(257, 80),
	}
}

// buildBigTIFF is buildTIFF for the 64-bit layout: 16 byte header, 8 byte
// counts and offsets, 20 byte entries with up to eight bytes inline.
func buildBigTIFF(entries ...tiffEntry) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	le := binary.LittleEndian
	ifdSize := 8 + 20*len(entries) + 8
	dataOff := 16 + ifdSize

	var head, extra bytes.Buffer
	head.WriteString("II")
	binary.Write(&head, le, uint16(43))
	binary.Write(&head, le, uint16(8))
	binary.Write(&head, le, uint16(0))
	binary.Write(&head, le, uint64(16))
	binary.Write(&head, le, uint64(len(entries)))

	for _, e := range entries {
		binary.Write(&head, le, e.tag)
		binary.Write(&head, le, e.typ)
		binary.Write(&head, le, uint64(e.count))
		if len(e.data) <= 8 {
			var inline [8]byte
			copy(inline[:], e.data)
			head.Write(inline[:])
			continue
		}
		binary.Write(&head, le, uint64(dataOff+extra.Len()))
		extra.Write(e.data)
		if extra.Len()%2 == 1 {
			extra.WriteByte(0)
		}
	}
	binary.Write(&head, le, uint64(0))
	return append(head.Bytes(), extra.Bytes()...)
}

// tiepointEntries describe a 10 m grid in ETRS-TM35FIN anchored at
// (500000, 7000000).
func tiepointEntries(rasterType uint16) []tiffEntry {
	return append(baseEntries(),
		doubleEntry(tagModelPixelScale, 10, 10, 0),
		doubleEntry(tagModelTiepoint, 0, 0, 0, 500000, 7000000, 0),
		shortEntry(tagGeoKeyDirectory,
			1, 1, 0, 3,
			1024, 0, 1, 1,
			keyRasterType, 0, 1, rasterType,
			keyProjectedCSType, 0, 1, 3067,
		),
	)
}

func tiepointTIFF(rasterType uint16) []byte {
	return buildTIFF(tiepointEntries(rasterType)...)
}

func transformTIFF() []byte {
	entries := append(baseEntries(),
		doubleEntry(tagModelTransform,
			0.5, 0, 0, 20,
			0, -0.5, 0, 70,
			0, 0, 0, 0,
			0, 0, 0, 1,
		),
		shortEntry(tagGeoKeyDirectory,
			1, 1, 0, 2,
			1024, 0, 1, 2,
			keyGeographicType, 0, 1, 4326,
		),
	)
	return buildTIFF(entries...)
}

func TestRead(t *testing.T) {
	t.Run("pixel scale and tiepoint", func(t *testing.T) {
		md, err := Read(bytes.NewReader(tiepointTIFF(1)))
		require.NoError(t, err)
		assert.Equal(t, 10.0, md.GSD)
		assert.Equal(t, "EPSG:3067", md.CRS)
		assert.Equal(t, [9]float64{10, 0, 500000, 0, -10, 7000000, 0, 0, 1}, md.Transform)
	})

	t.Run("pixel is point shifts to the corner", func(t *testing.T) {
		md, err := Read(bytes.NewReader(tiepointTIFF(rasterPixelIsPoint)))
		require.NoError(t, err)
		assert.Equal(t, [9]float64{10, 0, 499995, 0, -10, 7000005, 0, 0, 1}, md.Transform)
	})

	t.Run("bigtiff", func(t *testing.T) {
		md, err := Read(bytes.NewReader(buildBigTIFF(tiepointEntries(1)...)))
		require.NoError(t, err)
		classic, err := Read(bytes.NewReader(tiepointTIFF(1)))
		require.NoError(t, err)
		assert.Equal(t, classic, md)
		assert.Equal(t, "EPSG:3067", md.CRS)
	})

	t.Run("model transformation and geographic crs", func(t *testing.T) {
		md, err := Read(bytes.NewReader(transformTIFF()))
		require.NoError(t, err)
		assert.Equal(t, 0.5, md.GSD)
		assert.Equal(t, "EPSG:4326", md.CRS)
		assert.Equal(t, [9]float64{0.5, 0, 20, 0, -0.5, 70, 0, 0, 1}, md.Transform)
	})

	t.Run("plain tiff", func(t *testing.T) {
		_, err := Read(bytes.NewReader(buildTIFF(baseEntries()...)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotGeoreferenced))
	})

	t.Run("user defined crs", func(t *testing.T) {
		entries := append(baseEntries(),
			doubleEntry(tagModelPixelScale, 1, 1, 0),
			doubleEntry(tagModelTiepoint, 0, 0, 0, 0, 0, 0),
			shortEntry(tagGeoKeyDirectory, 1, 1, 0, 1, keyProjectedCSType, 0, 1, userDefinedGeoKeyCode),
		)
		_, err := Read(bytes.NewReader(buildTIFF(entries...)))
		assert.True(t, errors.Is(err, ErrNotGeoreferenced))
	})

	t.Run("not a tiff", func(t *testing.T) {
		_, err := Read(bytes.NewReader([]byte("definitely not a tiff")))
		require.Error(t, err)
	})
}

func TestMetadataApply(t *testing.T) {
	md := &Metadata{GSD: 10, CRS: "EPSG:3067", Transform: [9]float64{10, 0, 1, 0, -10, 2, 0, 0, 1}}
	item := &stac.Item{Id: "a"}
	md.Apply(item)

	assert.Equal(t, 10.0, item.AdditionalFields["gsd"])
	assert.Equal(t, "EPSG:3067", item.AdditionalFields["proj:epsg"])
	assert.Equal(t, []float64{10, 0, 1, 0, -10, 2, 0, 0, 1}, item.AdditionalFields["proj:transform"])
}

func TestInspectLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mosaic.tif")
	require.NoError(t, os.WriteFile(path, tiepointTIFF(1), 0o644))

	in := NewInspector()

	md, err := in.Inspect(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "EPSG:3067", md.CRS)

	md, err = in.Inspect(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, md.GSD)

	_, err = in.Inspect(context.Background(), filepath.Join(dir, "missing.tif"))
	require.Error(t, err)
}

func TestInspectHTTP(t *testing.T) {
	// pad the file so the header spans several blocks
	data := append(transformTIFF(), make([]byte, 3*blockSize)...)

	var ranged, plain int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ranged.tif":
			if r.Header.Get("Range") != "" {
				ranged++
			}
			http.ServeContent(w, r, "ranged.tif", time.Time{}, bytes.NewReader(data))
		case "/plain.tif":
			plain++
			w.Write(data)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	in := NewInspector(WithHTTPClient(server.Client()))

	t.Run("range requests", func(t *testing.T) {
		md, err := in.Inspect(context.Background(), server.URL+"/ranged.tif")
		require.NoError(t, err)
		assert.Equal(t, "EPSG:4326", md.CRS)
		assert.Equal(t, 1, ranged, "header fits in the first block")
	})

	t.Run("server ignores range", func(t *testing.T) {
		md, err := in.Inspect(context.Background(), server.URL+"/plain.tif")
		require.NoError(t, err)
		assert.Equal(t, 0.5, md.GSD)
		assert.Equal(t, 1, plain)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := in.Inspect(context.Background(), server.URL+"/missing.tif")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestHTTPFetchIgnoredRange(t *testing.T) {
	data := make([]byte, 3*blockSize+10)
	for i := range data {
		data[i] = byte(i % 251)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sized.tif":
			w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		case "/chunked.tif":
		default:
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer server.Close()

	in := NewInspector(WithHTTPClient(server.Client()))
	ctx := context.Background()

	t.Run("content length known", func(t *testing.T) {
		fetch := in.httpFetch(server.URL + "/sized.tif")
		got, start, total, err := fetch(ctx, blockSize, blockSize)
		require.NoError(t, err)
		assert.Equal(t, int64(blockSize), start)
		assert.Equal(t, int64(len(data)), total)
		assert.Equal(t, data[blockSize:2*blockSize], got)
	})

	t.Run("size unknown until the end", func(t *testing.T) {
		fetch := in.httpFetch(server.URL + "/chunked.tif")
		got, start, total, err := fetch(ctx, 0, blockSize)
		require.NoError(t, err)
		assert.Equal(t, int64(0), start)
		assert.Equal(t, int64(-1), total)
		assert.Len(t, got, blockSize)

		got, start, total, err = fetch(ctx, 3*blockSize, blockSize)
		require.NoError(t, err)
		assert.Equal(t, int64(3*blockSize), start)
		assert.Equal(t, int64(len(data)), total)
		assert.Equal(t, data[3*blockSize:], got)

		got, _, total, err = fetch(ctx, 4*blockSize, blockSize)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Equal(t, int64(len(data)), total)
	})

	t.Run("reader over an ignored range", func(t *testing.T) {
		r := newRangeReader(ctx, in.httpFetch(server.URL+"/chunked.tif"))
		buf := make([]byte, 20)
		n, err := r.ReadAt(buf, 2*blockSize-10)
		require.NoError(t, err)
		assert.Equal(t, 20, n)
		assert.Equal(t, data[2*blockSize-10:2*blockSize+10], buf)
	})
}

type fakeS3 struct {
	objects map[string][]byte
	calls   []string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.calls = append(f.calls, key+" "+aws.ToString(in.Range))
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}

	var first, last int64
	_, err := fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-%d", &first, &last)
	if err != nil {
		return nil, err
	}
	size := int64(len(data))
	last = min(last, size-1)
	return &s3.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader(data[first : last+1])),
		ContentRange: aws.String(fmt.Sprintf("bytes %d-%d/%d", first, last, size)),
	}, nil
}

func TestInspectS3(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"fmi-bucket/s2/mosaic.tif": tiepointTIFF(1),
	}}
	in := NewInspector(WithS3Client(fake))

	md, err := in.Inspect(context.Background(), "s3://fmi-bucket/s2/mosaic.tif")
	require.NoError(t, err)
	assert.Equal(t, "EPSG:3067", md.CRS)
	require.Len(t, fake.calls, 1)
	assert.True(t, strings.HasSuffix(fake.calls[0], fmt.Sprintf("bytes=0-%d", blockSize-1)))

	_, err = in.Inspect(context.Background(), "s3://fmi-bucket/other.tif")
	require.Error(t, err)
}

func TestInspectUnsupportedScheme(t *testing.T) {
	_, err := NewInspector().Inspect(context.Background(), "ftp://example.com/a.tif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestRangeReader(t *testing.T) {
	data := make([]byte, 2*blockSize+100)
	for i := range data {
		data[i] = byte(i % 251)
	}
	var fetches int
	r := newRangeReader(context.Background(), func(_ context.Context, off, length int64) ([]byte, int64, int64, error) {
		fetches++
		end := min(off+length, int64(len(data)))
		if off >= end {
			return nil, off, int64(len(data)), nil
		}
		return data[off:end], off, int64(len(data)), nil
	})

	buf := make([]byte, 200)
	n, err := r.ReadAt(buf, blockSize-100)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	assert.Equal(t, data[blockSize-100:blockSize+100], buf)
	assert.Equal(t, 2, fetches)

	// cached
	_, err = r.ReadAt(buf[:10], blockSize)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)

	pos, err := r.Seek(-50, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)-50), pos)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data[len(data)-50:], rest)

	_, err = r.ReadAt(buf, int64(len(data)))
	assert.Equal(t, io.EOF, err)
}

func TestParseContentRange(t *testing.T) {
	start, total, err := parseContentRange("bytes 65536-131071/1234567")
	require.NoError(t, err)
	assert.Equal(t, int64(65536), start)
	assert.Equal(t, int64(1234567), total)

	start, total, err = parseContentRange("bytes */42")
	require.NoError(t, err)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(42), total)

	_, total, err = parseContentRange("bytes 0-9/*")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), total)

	_, _, err = parseContentRange("items 0-9/10")
	require.Error(t, err)
}

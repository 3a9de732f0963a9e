package pdx

import (
	"archive/zip"
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/flate"
)

// flateReaderPool recycles klauspost/compress flate readers across ZIP
// entries: archive/zip calls the registered decompressor once per entry,
// and entries from concurrent Load calls (§5: "multiple parsers on
// distinct streams run in parallel without coordination") must not share
// one reader.
var flateReaderPool = sync.Pool{
	New: func() any { return flate.NewReader(nil) },
}

// newPooledFlateReader is the Deflate decompressor loadZip registers on
// each zip.Reader it opens. It is registered per reader because
// archive/zip already registers a package-wide Deflate decompressor.
func newPooledFlateReader(r io.Reader) io.ReadCloser {
	fr := flateReaderPool.Get().(io.ReadCloser)
	fr.(flate.Resetter).Reset(r, nil)
	return pooledFlateReader{fr}
}

// pooledFlateReader returns its underlying reader to flateReaderPool on
// Close, which archive/zip always calls once it is done with an entry.
type pooledFlateReader struct {
	io.ReadCloser
}

func (p pooledFlateReader) Close() error {
	err := p.ReadCloser.Close()
	flateReaderPool.Put(p.ReadCloser)
	return err
}

// Load implements §4.5's full dispatch: open path, sniff ZIP, sniff
// binary vs text header, and parse with the matching parser. lookup is
// called at most once, and only once the binary parser is actually
// reached, since building the token dictionary can be expensive.
func Load(path string, binHeader, txtHeader string, lookup func() map[int16]string) (*Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadFrom(f, binHeader, txtHeader, lookup)
}

func loadFrom(r io.Reader, binHeader, txtHeader string, lookup func() map[int16]string) (*Value, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && len(magic) == 2 && magic[0] == 0x50 && magic[1] == 0x4B {
		return loadZip(br, binHeader, txtHeader, lookup)
	}
	return loadHeaderedStream(br, binHeader, txtHeader, lookup)
}

// loadZip requires a random-access entry table, so unlike every other
// entry point here it reads its input fully into memory before handing
// off to archive/zip.
func loadZip(r io.Reader, binHeader, txtHeader string, lookup func() map[int16]string) (*Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ZipLayoutError{Reason: err.Error()}
	}
	zr.RegisterDecompressor(zip.Deflate, newPooledFlateReader)

	var entry *zip.File
	for _, f := range zr.File {
		if filepath.Ext(f.Name) == "" {
			continue
		}
		if entry != nil {
			return nil, &ZipLayoutError{Reason: "more than one entry with a non-empty extension"}
		}
		entry = f
	}
	if entry == nil {
		return nil, &ZipLayoutError{Reason: "no entry with a non-empty extension"}
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return loadFrom(rc, binHeader, txtHeader, lookup)
}

func loadHeaderedStream(r io.Reader, binHeader, txtHeader string, lookup func() map[int16]string) (*Value, error) {
	buf := make([]byte, len(binHeader))
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, &InvalidHeaderError{Got: string(buf[:n])}
	}
	switch string(buf) {
	case binHeader:
		return LoadBinary(r, lookup(), nil)
	case txtHeader:
		return ParseText(r)
	default:
		return nil, &InvalidHeaderError{Got: string(buf)}
	}
}

package compressor

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

type GzipCompressor struct {
	level int
}

func NewGzip() *GzipCompressor {
	return &GzipCompressor{level: gzip.DefaultCompression}
}

func (g *GzipCompressor) Extension() string {
	return ".gz"
}

// NewWriter wraps w so that everything written to it lands gzip-compressed.
// Closing the returned writer flushes the gzip trailer but leaves w open.
func (g *GzipCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	gzipWriter, err := gzip.NewWriterLevel(w, g.level)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	return gzipWriter, nil
}

func (g *GzipCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return gzipReader, nil
}

// Check verifies that path is a regular, non-empty file starting with the
// gzip magic bytes.
func (g *GzipCompressor) Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer file.Close()

	header, err := bufio.NewReader(file).Peek(len(gzipMagic))
	if err != nil || header[0] != gzipMagic[0] || header[1] != gzipMagic[1] {
		return fmt.Errorf("%s is not gzip-compressed", path)
	}

	return nil
}

package core

// decode.go prepares an upload stream for the CSV reader without buffering
// the whole file:
//
//   - a UTF-8 byte order mark (0xEF 0xBB 0xBF) written by spreadsheet
//     exports is removed so it does not end up in the first header name
//   - invalid UTF-8 sequences are replaced with U+FFFD
//   - bytes read are counted for upload logging
//
// Use WrapForDecoding to apply the transforms in the correct order.

import (
	"io"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WrapForDecoding strips a leading BOM and sanitizes invalid UTF-8.
func WrapForDecoding(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// CountingReader tracks how many bytes pass through it.
type CountingReader struct {
	r io.Reader
	n atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n.Load()
}

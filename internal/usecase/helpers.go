package usecase

import (
	"fmt"
	"io"
	"regexp"
	"time"
)

const timestampLayout = "20060102_150405"

// Naming builds and recognises backup file names of the form
// <prefix><YYYYMMDD_HHMMSS>.sql<ext>.
type Naming struct {
	Prefix    string
	Extension string
	pattern   *regexp.Regexp
}

func NewNaming(prefix, extension string) Naming {
	return Naming{
		Prefix:    prefix,
		Extension: extension,
		pattern: regexp.MustCompile(
			"^" + regexp.QuoteMeta(prefix) + `(\d{8}_\d{6})\.sql` + regexp.QuoteMeta(extension) + "$",
		),
	}
}

func (n Naming) Format(t time.Time) string {
	return n.Prefix + t.Format(timestampLayout) + ".sql" + n.Extension
}

func (n Naming) Match(name string) bool {
	return n.pattern.MatchString(name)
}

// Parse extracts the local timestamp encoded in a backup name.
func (n Naming) Parse(name string) (time.Time, error) {
	m := n.pattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid filename format: %s", name)
	}
	return time.ParseInLocation(timestampLayout, m[1], time.Local)
}

// countingWriter counts bytes on their way to w.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// errReader remembers the first non-EOF error of r, so a decompression
// failure is not mistaken for a client failure.
type errReader struct {
	r   io.Reader
	err error
}

func (e *errReader) Read(p []byte) (int, error) {
	n, err := e.r.Read(p)
	if err != nil && err != io.EOF && e.err == nil {
		e.err = err
	}
	return n, err
}

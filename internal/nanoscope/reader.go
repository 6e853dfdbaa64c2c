package nanoscope

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Option configures header reading.
type Option func(*readerOptions)

type readerOptions struct {
	enc encoding.Encoding
}

// WithEncoding overrides the text encoding of the header. The default is
// Windows-1252, which is what Nanoscope controllers write.
func WithEncoding(enc encoding.Encoding) Option {
	return func(o *readerOptions) {
		o.enc = enc
	}
}

// EncodingByName resolves a configuration name to a header encoding.
// The empty name selects the Windows-1252 default.
func EncodingByName(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "cp1252", "windows-1252":
		return charmap.Windows1252, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	return nil, fmt.Errorf("nanoscope: unknown header encoding %q", name)
}

// ReadHeader opens the file at path and parses its text header.
// The returned Document remembers the path so DecodeChannel can reopen
// the same file for binary access.
func ReadHeader(path string, opts ...Option) (*Document, error) {
	o := readerOptions{enc: charmap.Windows1252}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nanoscope: open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := Parse(transform.NewReader(f, o.enc.NewDecoder()))
	if err != nil {
		return nil, err
	}
	doc.path = path
	return doc, nil
}

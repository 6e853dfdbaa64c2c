package nanoscope

import (
	"bufio"
	"fmt"
	"io"
)

// Format constants. Only one file version is recognized.
const (
	SupportedVersion = "0x05120130"

	sectionImageList   = "Ciao image list"
	sectionFileListEnd = "File list end"

	paramVersion   = "Version"
	paramImageData = "Image Data"
)

// Channel names carried by "Image Data" string attributes.
const (
	ChannelHeight    = "Height"
	ChannelAmplitude = "Amplitude"
	ChannelPhase     = "Phase"
)

// ChannelConfig accumulates the parameters of one "Ciao image list"
// section. Later duplicate keys overwrite earlier ones.
type ChannelConfig map[string]any

// Document is the parsed header of one Nanoscope file: the top-level
// parameters plus one ChannelConfig per channel that declared an
// "Image Data" designation. It is built in a single pass over the text
// header and read-only afterwards, so it is safe to share across
// concurrent decode calls.
type Document struct {
	Globals  map[string]any
	Channels map[string]ChannelConfig

	// path of the underlying file when read via ReadHeader; used by
	// Document.DecodeChannel to reopen it in binary mode.
	path string
}

// Height returns the Height channel configuration, if present.
func (d *Document) Height() (ChannelConfig, bool) {
	c, ok := d.Channels[ChannelHeight]
	return c, ok
}

// Amplitude returns the Amplitude channel configuration, if present.
func (d *Document) Amplitude() (ChannelConfig, bool) {
	c, ok := d.Channels[ChannelAmplitude]
	return c, ok
}

// Phase returns the Phase channel configuration, if present.
func (d *Document) Phase() (ChannelConfig, bool) {
	c, ok := d.Channels[ChannelPhase]
	return c, ok
}

// ChannelNames returns the names of every channel registered in the
// header, in the fixed Height/Amplitude/Phase order.
func (d *Document) ChannelNames() []string {
	var out []string
	for _, name := range []string{ChannelHeight, ChannelAmplitude, ChannelPhase} {
		if _, ok := d.Channels[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// walker drives the two-state parse over the tokenized header stream.
// pending is the one-record lookahead slot: the header record that ended
// a section is handed back to the top-level state for reinterpretation
// instead of being consumed twice.
type walker struct {
	scanner *bufio.Scanner
	pending *Parameter
}

func (w *walker) next() (Parameter, bool, error) {
	if w.pending != nil {
		p := *w.pending
		w.pending = nil
		return p, true, nil
	}
	if !w.scanner.Scan() {
		if err := w.scanner.Err(); err != nil {
			return Parameter{}, false, fmt.Errorf("nanoscope: read header: %w", err)
		}
		return Parameter{}, false, nil
	}
	p, err := ParseParameter(w.scanner.Text())
	if err != nil {
		return Parameter{}, false, err
	}
	return p, true, nil
}

// Parse reads a decoded text header from r and builds the Document.
// Parsing is all-or-nothing: a stream that ends before the top-level
// "File list end" marker fails with ErrStructuralParse and no partial
// Document is returned.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{
		Globals:  make(map[string]any),
		Channels: make(map[string]ChannelConfig),
	}
	w := &walker{scanner: bufio.NewScanner(r)}

	for {
		p, ok, err := w.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("nanoscope: header ended without %q: %w",
				sectionFileListEnd, ErrStructuralParse)
		}

		if p.Kind != KindHeader && p.Name == paramVersion {
			if v, isStr := p.HardValue.(string); !isStr || v != SupportedVersion {
				return nil, fmt.Errorf("nanoscope: file version %v: %w",
					p.HardValue, ErrUnsupportedVersion)
			}
		}

		switch p.Kind {
		case KindHeader:
			switch p.SectionName {
			case sectionFileListEnd:
				return doc, nil
			case sectionImageList:
				end, err := w.readImageSection(doc)
				if err != nil {
					return nil, err
				}
				// The record that closed the section opens the next one
				// (or terminates the file); re-evaluate it at top level.
				w.pending = &end
			}
			// Other section headers are markers only; their parameters
			// accumulate into Globals as the loop continues.
		case KindScalarAttribute:
			doc.Globals[p.Name] = p.HardValue
		case KindStringAttribute:
			// String attributes only matter inside an image section.
		}
	}
}

// readImageSection consumes records into a fresh ChannelConfig until the
// next header record, which it returns unconsumed. The config becomes
// visible in doc.Channels only once an "Image Data" designation is seen;
// subsequent scalars keep mutating the already registered map.
func (w *walker) readImageSection(doc *Document) (Parameter, error) {
	cfg := make(ChannelConfig)
	for {
		p, ok, err := w.next()
		if err != nil {
			return Parameter{}, err
		}
		if !ok {
			return Parameter{}, fmt.Errorf("nanoscope: image section not terminated: %w",
				ErrStructuralParse)
		}
		switch p.Kind {
		case KindHeader:
			return p, nil
		case KindStringAttribute:
			if p.Name == paramImageData {
				cfg[paramImageData] = p.InternalDesignation
				doc.Channels[p.InternalDesignation] = cfg
			}
		case KindScalarAttribute:
			cfg[p.Name] = p.HardValue
		}
	}
}

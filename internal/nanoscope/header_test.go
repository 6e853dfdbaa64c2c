package nanoscope

import (
	"errors"
	"strings"
	"testing"
)

const sampleHeader = "\\*File list\r\n" +
	"\\Version: 0x05120130\r\n" +
	"\\Date: 03:45:18 PM Thu Aug 27 2026\r\n" +
	"\\*Ciao scan list\r\n" +
	"\\Scan size: 2000 nm\r\n" +
	"\\Lines: 256\r\n" +
	"\\*Ciao image list\r\n" +
	"\\Data offset: 40960\r\n" +
	"\\Data length: 524288\r\n" +
	"\\Bytes/pixel: 2\r\n" +
	"\\Number of lines: 512\r\n" +
	"\\Samps/line: 512\r\n" +
	"\\@2:Image Data: S [Height] \"Height\"\r\n" +
	"\\*Ciao image list\r\n" +
	"\\@2:Image Data: S [Phase] \"Phase\"\r\n" +
	"\\Data offset: 565248\r\n" +
	"\\Data length: 524288\r\n" +
	"\\Bytes/pixel: 2\r\n" +
	"\\Number of lines: 512\r\n" +
	"\\Samps/line: 512\r\n" +
	"\\*File list end\r\n"

func TestParse_Channels(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleHeader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Channels) != 2 {
		t.Fatalf("channels = %d, want 2", len(doc.Channels))
	}
	height, ok := doc.Height()
	if !ok {
		t.Fatal("Height channel missing")
	}
	if off, _ := height.IntField("Data offset"); off != 40960 {
		t.Errorf("Height data offset = %d, want 40960", off)
	}

	// Parameters after the Image Data line still land in the same config.
	phase, ok := doc.Phase()
	if !ok {
		t.Fatal("Phase channel missing")
	}
	if off, _ := phase.IntField("Data offset"); off != 565248 {
		t.Errorf("Phase data offset = %d, want 565248", off)
	}

	if _, ok := doc.Amplitude(); ok {
		t.Error("Amplitude channel should be absent")
	}
}

func TestParse_GlobalsAccumulate(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleHeader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Scalars from every non-image section accumulate into Globals.
	if v, ok := doc.Globals["Version"].(string); !ok || v != "0x05120130" {
		t.Errorf("Version = %v", doc.Globals["Version"])
	}
	if v, ok := doc.Globals["Lines"].(int64); !ok || v != 256 {
		t.Errorf("Lines = %v", doc.Globals["Lines"])
	}
	// Image section scalars belong to their channel, not Globals.
	if _, ok := doc.Globals["Data offset"]; ok {
		t.Error("image section scalar leaked into Globals")
	}
}

func TestParse_ChannelNameOrder(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleHeader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := doc.ChannelNames()
	if len(names) != 2 || names[0] != ChannelHeight || names[1] != ChannelPhase {
		t.Errorf("names = %v, want [Height Phase]", names)
	}
}

func TestParse_UnsupportedVersion(t *testing.T) {
	header := "\\*File list\r\n" +
		"\\Version: 0x09440201\r\n" +
		"\\*File list end\r\n"
	_, err := Parse(strings.NewReader(header))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParse_NumericVersionRejected(t *testing.T) {
	// A version that tokenizes as a number is not the supported literal.
	header := "\\*File list\r\n" +
		"\\Version: 5120130\r\n" +
		"\\*File list end\r\n"
	_, err := Parse(strings.NewReader(header))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParse_MissingFileListEnd(t *testing.T) {
	header := "\\*File list\r\n" +
		"\\Version: 0x05120130\r\n"
	_, err := Parse(strings.NewReader(header))
	if !errors.Is(err, ErrStructuralParse) {
		t.Fatalf("err = %v, want ErrStructuralParse", err)
	}
}

func TestParse_TruncatedImageSection(t *testing.T) {
	header := "\\*File list\r\n" +
		"\\Version: 0x05120130\r\n" +
		"\\*Ciao image list\r\n" +
		"\\Data offset: 1024\r\n"
	_, err := Parse(strings.NewReader(header))
	if !errors.Is(err, ErrStructuralParse) {
		t.Fatalf("err = %v, want ErrStructuralParse", err)
	}
}

func TestParse_ImageSectionWithoutDesignation(t *testing.T) {
	// An image section that never names its channel registers nothing.
	header := "\\*File list\r\n" +
		"\\Version: 0x05120130\r\n" +
		"\\*Ciao image list\r\n" +
		"\\Data offset: 1024\r\n" +
		"\\Data length: 64\r\n" +
		"\\*File list end\r\n"
	doc, err := Parse(strings.NewReader(header))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Channels) != 0 {
		t.Errorf("channels = %v, want none", doc.Channels)
	}
}

func TestParse_BackToBackImageSections(t *testing.T) {
	// The header that closes one image section must still open the next.
	doc, err := Parse(strings.NewReader(sampleHeader))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := doc.Phase(); !ok {
		t.Error("second consecutive image section lost")
	}
}

func TestParse_SyntaxErrorPropagates(t *testing.T) {
	header := "\\*File list\r\n" +
		"garbage line\r\n"
	_, err := Parse(strings.NewReader(header))
	if !errors.Is(err, ErrParameterSyntax) {
		t.Fatalf("err = %v, want ErrParameterSyntax", err)
	}
}

package nanoscope

import "errors"

// Sentinel errors returned (wrapped) by header parsing, channel decoding,
// and scanline leveling. Callers dispatch with errors.Is.
var (
	ErrParameterSyntax    = errors.New("malformed parameter line")
	ErrStructuralParse    = errors.New("malformed header structure")
	ErrUnsupportedVersion = errors.New("unsupported file version")
	ErrUnsupportedChannel = errors.New("unsupported channel")
	ErrChannelNotPresent  = errors.New("channel not present in file")
	ErrMalformedConfig    = errors.New("malformed channel configuration")
	ErrShapeMismatch      = errors.New("sample count does not match grid shape")
	ErrInsufficientData   = errors.New("insufficient data for polynomial fit")
)

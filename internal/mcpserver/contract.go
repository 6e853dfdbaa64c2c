package mcpserver

// FormatReference describes the recognized Nanoscope file structure for
// LLM consumers inspecting catalog contents.
const FormatReference = `# Nanoscope Scan File Reference

nanofield catalogs Nanoscope scanning-probe-microscope files (version
0x05120130). Each file is a text header followed by binary image data in
the same file.

## Header

- Line-oriented text, Windows-1252 encoded by default. Every parameter
  line starts with a backslash.
- ` + "`" + `\*Section name` + "`" + ` opens a section. The header ends at ` + "`" + `\*File list end` + "`" + `.
- ` + "`" + `\Key: value` + "`" + ` is a scalar parameter. Parameters outside image sections
  describe the acquisition globally (scan size, rates, date, version).
- Each ` + "`" + `\*Ciao image list` + "`" + ` section describes one image channel. The channel
  name comes from its ` + "`" + `\@2:Image Data: S [Name] "Name"` + "`" + ` line; recognized
  names are Height, Amplitude, and Phase.

## Channel geometry

Each channel section records where its samples live:

- ` + "`" + `Data offset` + "`" + ` – byte offset of the payload within the file
- ` + "`" + `Data length` + "`" + ` – payload size in bytes
- ` + "`" + `Bytes/pixel` + "`" + ` – always 2 (signed 16-bit little-endian samples)
- ` + "`" + `Number of lines` + "`" + ` / ` + "`" + `Samps/line` + "`" + ` – grid rows and columns

Decoded grids are raw instrument units; no physical calibration is
applied. The channel_stats tool can optionally apply per-row scanline
leveling (least-squares polynomial detrend) before computing statistics.
`

// Package nanoscope decodes Nanoscope scanning-probe-microscope files:
// the line-oriented text header into a Document of acquisition parameters,
// and the raw binary payloads into per-channel sample grids.
package nanoscope

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies one header parameter line.
type Kind int

const (
	// KindHeader opens or closes a section: `\*Section name`.
	KindHeader Kind = iota
	// KindStringAttribute is a ciao string parameter: `\@Key: S [Designation] "label"`.
	KindStringAttribute
	// KindScalarAttribute is any other parameter carrying a hard value.
	KindScalarAttribute
)

// Parameter is the typed result of tokenizing one header line.
// Exactly one of SectionName, InternalDesignation, or HardValue is
// meaningful, determined by Kind.
type Parameter struct {
	Kind Kind

	// Name is the parameter key, e.g. "Data offset" or "Image Data".
	// Empty for headers.
	Name string

	// SectionName identifies the section a KindHeader record opens or closes.
	SectionName string

	// InternalDesignation names the channel for a KindStringAttribute
	// record with Name "Image Data" (e.g. "Height", "Phase").
	InternalDesignation string

	// HardValue is the parsed payload of a non-header line:
	// int64, float64, or string.
	HardValue any
}

// ParseParameter tokenizes one raw header line into a Parameter.
// Lines must begin with '\'; anything else violates the line grammar.
func ParseParameter(line string) (Parameter, error) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, `\`) {
		return Parameter{}, fmt.Errorf("nanoscope: line %q does not start with '\\': %w", line, ErrParameterSyntax)
	}
	body := line[1:]

	if strings.HasPrefix(body, "*") {
		return Parameter{
			Kind:        KindHeader,
			SectionName: strings.TrimSpace(body[1:]),
		}, nil
	}

	ciao := strings.HasPrefix(body, "@")
	if ciao {
		body = body[1:]
		// Strip the numeric group prefix: `2:Z scale: ...` → `Z scale: ...`.
		if i := strings.Index(body, ":"); i > 0 {
			if _, err := strconv.Atoi(body[:i]); err == nil {
				body = body[i+1:]
			}
		}
	}

	i := strings.Index(body, ":")
	if i < 0 {
		return Parameter{}, fmt.Errorf("nanoscope: line %q has no key separator: %w", line, ErrParameterSyntax)
	}
	name := strings.TrimSpace(body[:i])
	rest := strings.TrimSpace(body[i+1:])

	if ciao && strings.HasPrefix(rest, "S ") {
		designation, label := parseStringValue(rest[2:])
		return Parameter{
			Kind:                KindStringAttribute,
			Name:                name,
			InternalDesignation: designation,
			HardValue:           label,
		}, nil
	}

	if ciao {
		// `V [soft-scale] (hard-scale) hard-value` and friends: the hard
		// value is what remains after the type letter and scale groups.
		if len(rest) >= 2 && rest[1] == ' ' {
			rest = rest[2:]
		}
		rest = stripGroups(rest)
	}

	return Parameter{
		Kind:      KindScalarAttribute,
		Name:      name,
		HardValue: parseHardValue(rest),
	}, nil
}

// parseStringValue extracts the bracketed internal designation and the
// quoted display label from an S-type value. A missing designation falls
// back to the label.
func parseStringValue(s string) (designation, label string) {
	if i := strings.Index(s, "["); i >= 0 {
		if j := strings.Index(s[i:], "]"); j > 0 {
			designation = strings.TrimSpace(s[i+1 : i+j])
		}
	}
	if i := strings.Index(s, `"`); i >= 0 {
		if j := strings.Index(s[i+1:], `"`); j >= 0 {
			label = s[i+1 : i+1+j]
		}
	}
	if designation == "" {
		designation = label
	}
	return designation, label
}

// stripGroups removes bracketed soft-scale and parenthesized hard-scale
// groups from a ciao value, leaving the hard value.
func stripGroups(s string) string {
	for {
		start := strings.IndexAny(s, "[(")
		if start < 0 {
			return strings.TrimSpace(s)
		}
		closer := "]"
		if s[start] == '(' {
			closer = ")"
		}
		end := strings.Index(s[start:], closer)
		if end < 0 {
			return strings.TrimSpace(s[:start])
		}
		s = s[:start] + s[start+end+1:]
	}
}

// parseHardValue parses a scalar payload: base-10 integer, then float,
// otherwise the trimmed text. Hex-looking tokens such as the version
// literal "0x05120130" stay strings.
func parseHardValue(raw string) any {
	raw = strings.TrimSpace(raw)
	// Numeric values may trail a unit ("440.6537 V"); only the first token
	// is considered for numeric parsing.
	token := raw
	if i := strings.IndexByte(raw, ' '); i > 0 {
		token = raw[:i]
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return f
	}
	return raw
}

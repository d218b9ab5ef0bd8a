// Package shading computes hillshade images from elevation grids using one
// or more layered shading methods, and parses the CLI grammar that selects
// them.
package shading

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Kind identifies a hillshade computation method.
type Kind int

const (
	Igor Kind = iota
	Oblique
	Slope
)

func (k Kind) String() string {
	switch k {
	case Igor:
		return "igor"
	case Oblique:
		return "oblique"
	case Slope:
		return "slope"
	default:
		return "unknown"
	}
}

// Method is one layer's shading parameters. Azimuth/Altitude are in
// degrees; unused fields for a given Kind are zero.
type Method struct {
	Kind     Kind
	Azimuth  float64
	Altitude float64
}

// Shading is one layer of a composited shading spec: a tint color plus the
// method that computes its per-pixel intensity.
type Shading struct {
	Color  color.RGBA
	Method Method
}

// Shadings is an ordered list of layers, composited back-to-front.
type Shadings []Shading

// ParseShadings parses the "method,rrggbbaa,params..." grammar, with
// layers joined by "+" — e.g. "igor,ff4455ff,120+oblique,303030ff,315,45".
func ParseShadings(spec string) (Shadings, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("shading: empty spec")
	}
	var out Shadings
	for _, part := range strings.Split(spec, "+") {
		s, err := parseOne(part)
		if err != nil {
			return nil, fmt.Errorf("shading: parsing %q: %w", part, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseOne(part string) (Shading, error) {
	fields := strings.Split(part, ",")
	if len(fields) < 2 {
		return Shading{}, fmt.Errorf("expected at least method,color")
	}
	kind, err := parseKind(fields[0])
	if err != nil {
		return Shading{}, err
	}
	c, err := parseHexColor(fields[1])
	if err != nil {
		return Shading{}, err
	}
	params := fields[2:]
	method := Method{Kind: kind}
	switch kind {
	case Igor:
		if len(params) != 1 {
			return Shading{}, fmt.Errorf("igor requires 1 param (azimuth), got %d", len(params))
		}
		method.Azimuth, err = strconv.ParseFloat(params[0], 64)
	case Oblique:
		if len(params) != 2 {
			return Shading{}, fmt.Errorf("oblique requires 2 params (azimuth,altitude), got %d", len(params))
		}
		method.Azimuth, err = strconv.ParseFloat(params[0], 64)
		if err == nil {
			method.Altitude, err = strconv.ParseFloat(params[1], 64)
		}
	case Slope:
		if len(params) != 1 {
			return Shading{}, fmt.Errorf("slope requires 1 param (altitude), got %d", len(params))
		}
		method.Altitude, err = strconv.ParseFloat(params[0], 64)
	}
	if err != nil {
		return Shading{}, fmt.Errorf("parsing numeric param: %w", err)
	}
	return Shading{Color: c, Method: method}, nil
}

func parseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "igor":
		return Igor, nil
	case "oblique":
		return Oblique, nil
	case "slope":
		return Slope, nil
	default:
		return 0, fmt.Errorf("unknown shading method %q (want igor, oblique, or slope)", s)
	}
}

// parseHexColor parses an 8-hex-digit RRGGBBAA color.
func parseHexColor(s string) (color.RGBA, error) {
	if len(s) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q must be 8 hex digits (RRGGBBAA)", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

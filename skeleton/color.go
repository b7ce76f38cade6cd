// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package skeleton

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Color is a display color carried on neurons and meshes.
type Color struct {
	R, G, B uint8
}

// DefaultColor is assigned to neurons without an explicit color.
var DefaultColor = Color{R: 255, G: 255, B: 0}

// ErrBadColor indicates a color string that is not "#RRGGBB".
var ErrBadColor = errors.New("skeleton: malformed hex color")

// Hex renders the color as lowercase "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor parses "#RRGGBB" (case-insensitive).
func ParseHexColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

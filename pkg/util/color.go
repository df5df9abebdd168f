package util

import (
	"errors"
	"image/color"
	"strconv"
	"strings"
)

var ErrInvalidColor = errors.New("color must be a hex value like #aabbcc")

// NormalizeHexColor turns "#ABC", "abc", "#AABBCC" into "#aabbcc". Empty input stays empty.
func NormalizeHexColor(s string) (string, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", nil
	}
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return "", ErrInvalidColor
	}
	if _, err := strconv.ParseUint(s, 16, 32); err != nil {
		return "", ErrInvalidColor
	}
	return "#" + s, nil
}

// ParseHexColor returns the opaque RGBA value of a hex color
func ParseHexColor(s string) (color.RGBA, error) {
	norm, err := NormalizeHexColor(s)
	if err != nil {
		return color.RGBA{}, err
	}
	if norm == "" {
		return color.RGBA{}, ErrInvalidColor
	}
	v, _ := strconv.ParseUint(norm[1:], 16, 32)
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

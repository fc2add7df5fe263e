// Package dither implements the ordered-dither engine that converts
// multi-bit grayscale scanlines into packed 1-bit output with per-line
// run-length change detection, grounded byte-for-byte in the reference C
// implementation's dither allocator and per-line state machine.
package dither

import (
	"math"

	"lprintd/internal/lperr"
)

// Matrix is an ordered-dither threshold matrix, 16 rows of 16 thresholds
// each, before gamma correction.
type Matrix [16][16]byte

// ClusteredDot is a classic 8x8 clustered-dot screen tiled into the 16x16
// field, used for bi-level print-color-mode.
var ClusteredDot = buildClusteredDot()

// Dispersed is a 4x4 Bayer dispersed-dot matrix tiled into the 16x16
// field, used for anything other than plain bi-level mode.
var Dispersed = buildDispersed()

func buildClusteredDot() Matrix {
	// Classic 8x8 clustered-dot growth pattern tiled into the 16x16 field
	// the rest of this package expects; each quadrant repeats the 8x8
	// screen so on-press dot clustering stays visually consistent at any
	// of the supported print resolutions.
	base := [8][8]int{
		{24, 10, 12, 26, 35, 47, 49, 37},
		{8, 0, 2, 14, 45, 59, 61, 51},
		{22, 6, 4, 16, 43, 57, 63, 53},
		{30, 20, 18, 28, 33, 41, 55, 39},
		{34, 46, 48, 36, 25, 11, 13, 27},
		{44, 58, 60, 50, 9, 1, 3, 15},
		{42, 56, 62, 52, 23, 7, 5, 17},
		{32, 40, 54, 38, 31, 21, 19, 29},
	}
	var m Matrix
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			v := base[i%8][j%8]
			m[i][j] = byte(v * 255 / 63)
		}
	}
	return m
}

func buildDispersed() Matrix {
	base := [4][4]int{
		{0, 8, 2, 10},
		{12, 4, 14, 6},
		{3, 11, 1, 9},
		{15, 7, 13, 5},
	}
	var m Matrix
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			v := base[i%4][j%4]
			m[i][j] = byte(v * 255 / 15)
		}
	}
	return m
}

// pixel is one stored input sample: a polarity-normalized value (0 =
// paper, 255 = maximum ink) and the length of the run of identical values
// starting at this pixel, capped at 255; a run of length 1 keeps count 0.
type pixel struct {
	value byte
	count byte
}

// Options carries the subset of job options the dither engine needs from
// the resolved job-options struct.
type Options struct {
	// Left, Top, Right, Bottom bound the imageable box in pixels.
	Left, Top, Right, Bottom int
	// InWidth is the input raster width in pixels (cupsWidth).
	InWidth int
	// InBitsPerPixel is 1 or 8.
	InBitsPerPixel int
	// WhiteIs255 is true for colorspaces where a raw sample of 255 means
	// paper and 0 means maximum ink (CUPS_CSPACE_W/SW/RGB/sRGB/AdobeRGB);
	// false for colorspaces where 0 already means paper.
	WhiteIs255 bool
	// Matrix is the (pre-gamma) 16x16 threshold matrix to use.
	Matrix Matrix
}

// State is a job-owned dither engine instance, scoped to one page's
// worth of scanlines.
type State struct {
	left, top, right, bottom int
	inWidth, outWidth         int
	inBPP                     int
	whiteIs255                bool
	outWhite                  byte

	matrix [16][16]byte // gamma-corrected, compressed to [16,239]

	input  [4][]pixel
	Output []byte
}

const maxAlloc = 65536 // guards against a malformed header requesting an unreasonable width

// Alloc prepares a State for a page, gamma-correcting the supplied
// matrix: D'[i][j] = round(223 * (D[i][j]/255)^gamma) + 16.
func Alloc(opts Options, outGamma float64) (*State, error) {
	s := &State{
		left: opts.Left, top: opts.Top, right: opts.Right, bottom: opts.Bottom,
		inBPP:      opts.InBitsPerPixel,
		whiteIs255: opts.WhiteIs255,
	}

	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			g := math.Pow(float64(opts.Matrix[i][j])/255.0, outGamma)
			s.matrix[i][j] = byte(math.Round(223.0*g) + 16.0)
		}
	}

	s.outWidth = (s.right - s.left + 7) / 8
	s.inWidth = s.right - s.left
	if maxIn := opts.InWidth - s.left; maxIn < s.inWidth {
		s.inWidth = maxIn
	}

	if s.inWidth <= 0 || s.inWidth > maxAlloc || s.outWidth <= 0 || s.outWidth > maxAlloc {
		return nil, lperr.New(lperr.ResourceExhausted, "dither alloc: unreasonable page geometry")
	}

	// White-on-input convention: 1-bit and 8-bit "white" colorspaces (W,
	// SW, RGB, sRGB, AdobeRGB-ish single/triple channel greys) store 255
	// for paper; anything else is assumed to store 0 for paper. The
	// packed output buffer mirrors the same polarity.
	if opts.WhiteIs255 {
		s.outWhite = 0xFF
	} else {
		s.outWhite = 0
	}

	for i := range s.input {
		s.input[i] = make([]pixel, s.inWidth)
	}
	s.Output = make([]byte, s.outWidth)

	return s, nil
}

// clampValue normalizes a raw input sample to the value convention value=0
// means paper, value=255 means maximum ink: input <= 15 clamps to 0,
// input >= 240 clamps to 255, otherwise the sample is used as-is
// (inverted first if the source's white point is 255).
func (s *State) clampValue(raw byte) byte {
	v := raw
	if s.whiteIs255 {
		v = 255 - raw
	}
	if v <= 15 {
		return 0
	}
	if v >= 240 {
		return 255
	}
	return v
}

// Line feeds scanline y (0-based) into the ring buffer and, once enough
// look-behind is available, dithers and returns true with Output holding
// line y-1's packed bits. src may be nil only when y == cupsHeight, the
// final flush-only call.
func (s *State) Line(y int, src []byte) bool {
	slot := y & 3
	line := s.input[slot]

	if src != nil {
		for x := 0; x < s.inWidth; x++ {
			var raw byte
			if s.inBPP == 1 {
				raw = expandBit(src, x)
			} else {
				raw = src[x]
			}
			line[x].value = s.clampValue(raw)
		}
	} else {
		for x := range line {
			line[x] = pixel{}
		}
	}

	// Run-length pass: count[x] = length of the run of identical values
	// starting at x, capped at 255; a singleton keeps count == 0.
	x := 0
	for x < len(line) {
		runEnd := x + 1
		for runEnd < len(line) && line[runEnd].value == line[x].value {
			runEnd++
		}
		runLen := runEnd - x
		for i := x; i < runEnd; i++ {
			remaining := runEnd - i
			if remaining > 255 {
				remaining = 255
			}
			if runLen > 1 {
				line[i].count = byte(remaining)
			} else {
				line[i].count = 0
			}
		}
		x = runEnd
	}

	if y < s.top+2 || y > s.bottom+1 {
		return false
	}

	prev := s.input[(y-2)&3]
	cur := s.input[(y-1)&3]
	next := s.input[y&3]

	for i := range s.Output {
		s.Output[i] = s.outWhite
	}

	dline := &s.matrix[y&15]

	for x := 0; x < len(cur); x++ {
		c := cur[x]
		lit := false

		switch {
		case c.value == 255:
			lit = true
		case c.value != 0:
			boundary := (c.count == 0 && x > 0 && cur[x-1].value == 255 && cur[x-1].count != 0) ||
				(c.count == 0 && x+1 < len(cur) && cur[x+1].value == 255 && cur[x+1].count != 0) ||
				(prev[x].value == 255 && prev[x].count != 0) ||
				(next[x].value == 255 && next[x].count != 0)
			if boundary {
				lit = c.value > 127
			} else {
				lit = c.value > dline[x&15]
			}
		}

		if lit {
			s.Output[x/8] ^= 0x80 >> uint(x%8)
		}
	}

	return true
}

func expandBit(src []byte, x int) byte {
	byteIdx := x / 8
	if byteIdx >= len(src) {
		return 0
	}
	bit := src[byteIdx] & (0x80 >> uint(x%8))
	if bit != 0 {
		return 0xFF
	}
	return 0x00
}

// OutWidth returns the packed output line width in bytes.
func (s *State) OutWidth() int { return s.outWidth }

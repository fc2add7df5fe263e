package codec

import (
	"testing"

	"lprintd/internal/dither"
)

func ditherOptsForSII() dither.Options {
	return dither.Options{
		Left: 0, Top: 0, Right: 8, Bottom: 3,
		InWidth: 8, InBitsPerPixel: 1, WhiteIs255: false,
		Matrix: dither.ClusteredDot,
	}
}

func mustDither(t *testing.T, opts dither.Options) *dither.State {
	t.Helper()
	d, err := dither.Alloc(opts, 1.0)
	if err != nil {
		t.Fatalf("dither.Alloc: %v", err)
	}
	return d
}

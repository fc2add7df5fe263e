package codec

import (
	"strings"
	"testing"

	"lprintd/internal/dither"
)

func TestTSPLRStartPageHeader(t *testing.T) {
	dev := &bufDevice{}
	s := &TSPLState{}
	opts := TSPLOptions{
		PrintDarkness:               40,
		DarknessConfigured:          10,
		PrintSpeedHundredthsMM:      2540 * 3,
		MediaSizeWidthHundredthsMM:  5080,
		MediaSizeLengthHundredthsMM: 7620,
		Orientation:                 TSPLLandscape,
		Resolution:                 203,
		CupsHeight:                 100,
		NumCopies:                  1,
	}
	ditherOpts := dither.Options{
		Left: 0, Top: 0, Right: 16, Bottom: 100,
		InWidth: 16, InBitsPerPixel: 1, WhiteIs255: false,
		Matrix: dither.Dispersed,
	}
	if err := TSPLRStartPage(dev, s, opts, ditherOpts); err != nil {
		t.Fatalf("TSPLRStartPage: %v", err)
	}

	out := dev.String()
	if !strings.Contains(out, "SIZE 50 mm,76 mm\n") {
		t.Fatalf("missing SIZE line: %q", out)
	}
	if !strings.Contains(out, "DIRECTION 90,0\n") {
		t.Fatalf("missing DIRECTION line: %q", out)
	}
	// darkness = 40+10 = 50; (50*15+50)/100 = 8
	if !strings.Contains(out, "DENSITY 8\n") {
		t.Fatalf("wrong DENSITY: %q", out)
	}
	if !strings.Contains(out, "SPEED 3\n") {
		t.Fatalf("wrong SPEED: %q", out)
	}
	if !strings.HasSuffix(out, "BITMAP 0,0,2,100,1,") {
		t.Fatalf("wrong BITMAP header: %q", out)
	}
}

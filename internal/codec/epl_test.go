package codec

import (
	"strings"
	"testing"

	"lprintd/internal/dither"
)

func eplDitherOpts() dither.Options {
	return dither.Options{
		Left: 0, Top: 0, Right: 8, Bottom: 3,
		InWidth: 8, InBitsPerPixel: 1, WhiteIs255: false,
		Matrix: dither.ClusteredDot,
	}
}

func TestEPLRWriteLineSkipsBlankLines(t *testing.T) {
	dev := &bufDevice{}
	s := &EPLState{dith: mustDither(t, eplDitherOpts())}

	if err := EPLRWriteLine(dev, s, 0, []byte{0x00}); err != nil {
		t.Fatalf("blank: %v", err)
	}
	if dev.Len() != 0 {
		t.Fatalf("expected no output for blank line, got %q", dev.String())
	}
}

func TestEPLRWriteLineEmitsGWForNonBlank(t *testing.T) {
	dev := &bufDevice{}
	s := &EPLState{dith: mustDither(t, eplDitherOpts())}

	// Output lines exist only for calls in [top+2, bottom+1] = [2, 4], and
	// each emits the line fed one call earlier: the call at y=4 emits line 3.
	if err := EPLRWriteLine(dev, s, 3, []byte{0xFF}); err != nil {
		t.Fatalf("nonblank: %v", err)
	}
	if err := EPLRWriteLine(dev, s, 4, []byte{0xFF}); err != nil {
		t.Fatalf("nonblank: %v", err)
	}

	out := dev.String()
	if !strings.HasPrefix(out, "GW0,4,") {
		t.Fatalf("expected GW0,4,... prefix, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected trailing newline, got %q", out)
	}
}

func TestEPLREndPageTrim(t *testing.T) {
	dev := &bufDevice{}
	s := &EPLState{dith: mustDither(t, eplDitherOpts())}

	opts := EPLOptions{CupsHeight: 1, Trim: true}
	if err := EPLREndPage(dev, s, opts); err != nil {
		t.Fatalf("EPLREndPage: %v", err)
	}
	if !strings.Contains(dev.String(), "P1\n") {
		t.Fatalf("expected P1 print command, got %q", dev.String())
	}
	if !strings.Contains(dev.String(), "C\n") {
		t.Fatalf("expected C cut command, got %q", dev.String())
	}
}

package codec

import (
	"bytes"
	"fmt"
	"testing"

	"lprintd/internal/dither"
)

type bufDevice struct {
	bytes.Buffer
}

func (d *bufDevice) Printf(format string, args ...interface{}) (int, error) {
	return d.Write([]byte(fmt.Sprintf(format, args...)))
}
func (d *bufDevice) Flush() error   { return nil }
func (d *bufDevice) URI() string    { return "file:///dev/null" }
func (d *bufDevice) Close() error   { return nil }

func newZPLState(t *testing.T) *ZPLState {
	t.Helper()
	opts := dither.Options{
		Left: 0, Top: 0, Right: 8, Bottom: 3,
		InWidth: 8, InBitsPerPixel: 1, WhiteIs255: false,
		Matrix: dither.ClusteredDot,
	}
	d, err := dither.Alloc(opts, 1.0)
	if err != nil {
		t.Fatalf("dither.Alloc: %v", err)
	}
	return &ZPLState{
		dith:       d,
		outWidth:   d.OutWidth(),
		lastBuffer: make([]byte, d.OutWidth()),
		compBuf:    make([]byte, 0, 2*d.OutWidth()+1),
	}
}

// A blank (all-zero) scanline compresses to a bare comma: the trailing run
// of hex '0' characters has even length, so no literal "0" is emitted.
func TestZPLRWriteLineBlankLine(t *testing.T) {
	dev := &bufDevice{}
	s := newZPLState(t)
	blank := []byte{0x00}

	var wrote bool
	var err error
	for y := 0; y <= 2; y++ {
		wrote, err = ZPLRWriteLine(dev, s, y, blank)
		if err != nil {
			t.Fatalf("y=%d: %v", y, err)
		}
	}
	if !wrote {
		t.Fatalf("expected output at y=2")
	}
	if got := dev.String(); got != "," {
		t.Fatalf("blank line: got %q, want %q", got, ",")
	}
}

// Two identical consecutive scanlines: the second is a bare ':'.
func TestZPLRWriteLineRepeatedLine(t *testing.T) {
	dev := &bufDevice{}
	s := newZPLState(t)
	blank := []byte{0x00}

	for y := 0; y <= 2; y++ {
		if _, err := ZPLRWriteLine(dev, s, y, blank); err != nil {
			t.Fatalf("y=%d: %v", y, err)
		}
	}
	dev.Reset()

	if _, err := ZPLRWriteLine(dev, s, 3, blank); err != nil {
		t.Fatalf("y=3: %v", err)
	}
	if got := dev.String(); got != ":" {
		t.Fatalf("repeated line: got %q, want %q", got, ":")
	}
}

func TestZPLCompressShortRun(t *testing.T) {
	out := zplCompress(nil, 'A', 1)
	if string(out) != "GA" {
		t.Fatalf("count=1: got %q, want %q", out, "GA")
	}

	out = zplCompress(nil, 'A', 19)
	if string(out) != "YA" {
		t.Fatalf("count=19: got %q, want %q", out, "YA")
	}
}

func TestZPLCompressMultipleOf20(t *testing.T) {
	out := zplCompress(nil, 'A', 20)
	if string(out) != "gA" {
		t.Fatalf("count=20: got %q, want %q", out, "gA")
	}

	out = zplCompress(nil, 'A', 380)
	if string(out) != "yA" {
		t.Fatalf("count=380: got %q, want %q", out, "yA")
	}
}

func TestZPLCompressLargeRun(t *testing.T) {
	out := zplCompress(nil, 'A', 400)
	if string(out) != "zA" {
		t.Fatalf("count=400: got %q, want %q", out, "zA")
	}

	out = zplCompress(nil, 'A', 420)
	if string(out) != "zgA" {
		t.Fatalf("count=420: got %q, want %q", out, "zgA")
	}
}

func TestZPLRStartJobDarknessAndMode(t *testing.T) {
	dev := &bufDevice{}
	err := ZPLRStartJob(dev, ZPLOptions{
		ModeConfigured:       ZPLModePeelOffPrepeel,
		TearOffsetConfigured: -5,
		PrintDarkness:        50,
		DarknessConfigured:   10,
	})
	if err != nil {
		t.Fatalf("ZPLRStartJob: %v", err)
	}

	want := "^MMP,Y\n~TA-005\n~SD18\n"
	if got := dev.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

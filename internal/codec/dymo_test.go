package codec

import "testing"

func TestDYMORWriteLineAccumulatesBlankFeed(t *testing.T) {
	dev := &bufDevice{}
	s := &DYMOState{ystart: 0, yend: 3}

	blank := []byte{0x00, 0x00, 0x00}
	for y := 0; y < 2; y++ {
		wrote, err := DYMORWriteLine(dev, s, y, blank)
		if err != nil {
			t.Fatalf("y=%d: %v", y, err)
		}
		if !wrote {
			t.Fatalf("y=%d: expected wrote=true (in-window)", y)
		}
	}
	if dev.Len() != 0 {
		t.Fatalf("blank lines should not write bitmap data, got %q", dev.String())
	}
	if s.feed != 2 {
		t.Fatalf("feed = %d, want 2", s.feed)
	}

	nonblank := []byte{0x00, 0xFF, 0x00}
	if _, err := DYMORWriteLine(dev, s, 2, nonblank); err != nil {
		t.Fatalf("y=2: %v", err)
	}

	want := "\x1bf\x01\x02" + "\x16\xff\x00"
	if got := dev.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.feed != 0 {
		t.Fatalf("feed not reset after flush: %d", s.feed)
	}
}

func TestDYMORWriteLineOutOfWindowSkipped(t *testing.T) {
	dev := &bufDevice{}
	s := &DYMOState{ystart: 5, yend: 10}

	wrote, err := DYMORWriteLine(dev, s, 1, []byte{0xFF})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wrote {
		t.Fatalf("expected wrote=false outside imageable window")
	}
	if dev.Len() != 0 {
		t.Fatalf("expected no device I/O, got %q", dev.String())
	}
}

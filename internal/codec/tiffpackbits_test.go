package codec

import (
	"bytes"
	"testing"
)

func TestTiffPackBitsRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0},
		bytes.Repeat([]byte{'z'}, 2),
		bytes.Repeat([]byte{'z'}, 128),
		bytes.Repeat([]byte{'z'}, 129), // the 129-byte run only TIFF PackBits can emit as a single run
		bytes.Repeat([]byte{'z'}, 130),
		bytes.Repeat([]byte{'z'}, 1024),
		[]byte("abbbcccdd"),
	}
	alt := make([]byte, 512)
	for i := range alt {
		alt[i] = byte(i)
	}
	cases = append(cases, alt)

	for _, b := range cases {
		enc := TiffPackBits(b)
		if max := PackBitsBufSize(len(b)); len(enc) > max {
			t.Errorf("TiffPackBits(%d bytes): encoded len %d exceeds bound %d", len(b), len(enc), max)
		}
		dec, err := TiffPackBitsDecode(enc)
		if err != nil {
			t.Fatalf("TiffPackBitsDecode: %v", err)
		}
		if !bytes.Equal(dec, b) {
			t.Fatalf("round-trip mismatch for %d-byte input: got %v, want %v", len(b), dec, b)
		}
	}
}

func TestTiffPackBitsEmits129ByteRun(t *testing.T) {
	b := bytes.Repeat([]byte{'z'}, 129)
	enc := TiffPackBits(b)
	want := []byte{0x80, 'z'}
	if !bytes.Equal(enc, want) {
		t.Errorf("TiffPackBits(129x'z') = % x, want % x", enc, want)
	}
}

func TestTiffPackBitsDecode0x80IsA129Repeat(t *testing.T) {
	dec, err := TiffPackBitsDecode([]byte{0x80, 'z'})
	if err != nil {
		t.Fatalf("TiffPackBitsDecode: %v", err)
	}
	if len(dec) != 129 {
		t.Fatalf("len(dec) = %d, want 129", len(dec))
	}
	for i, c := range dec {
		if c != 'z' {
			t.Fatalf("dec[%d] = %q, want 'z'", i, c)
		}
	}
}

func TestTiffPackBitsDecodeTruncated(t *testing.T) {
	if _, err := TiffPackBitsDecode([]byte{0x01, 'a'}); err == nil {
		t.Fatal("expected error for truncated literal run")
	}
	if _, err := TiffPackBitsDecode([]byte{0x80}); err == nil {
		t.Fatal("expected error for truncated repeat run")
	}
}

package job

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"testing"

	"lprintd/internal/device"
	"lprintd/internal/driver"
)

type bufDevice struct {
	bytes.Buffer
}

func (d *bufDevice) Printf(format string, args ...interface{}) (int, error) {
	return 0, nil
}
func (d *bufDevice) Flush() error { return nil }
func (d *bufDevice) URI() string  { return "file:///dev/null" }
func (d *bufDevice) Close() error { return nil }

func writeRasterFile(t *testing.T, width, height, bytesPerLine uint32, lines [][]byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "raster-*.pwg")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	f.WriteString("RaS2")
	hdr := make([]byte, 1796)
	ints := hdr[256:]
	put := func(idx int, v uint32) { binary.BigEndian.PutUint32(ints[idx*4:], v) }
	put(6, 203)
	put(7, 203)
	put(30, width)
	put(31, height)
	put(33, 1)
	put(34, 1)
	put(35, bytesPerLine)
	put(37, 0) // CupsColorSpaceW
	put(42, 0)
	put(43, 0)
	put(44, width)
	put(45, height)
	f.Write(hdr)
	for _, l := range lines {
		f.Write(l)
	}
	return f.Name()
}

func TestProcessRasterDrivesPWGPassthroughCodec(t *testing.T) {
	rec := driver.NewPWG("pwg-test")
	dev := &bufDevice{}

	spool := writeRasterFile(t, 8, 2, 1, [][]byte{{0xAA}, {0x55}})

	j := New(1, "alice", "label.pwg", "image/pwg-raster")
	j.MarkSpooled(spool)

	if err := ProcessJob(j, rec, dev, Default()); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if j.State() != StateCompleted {
		t.Fatalf("expected StateCompleted, got %v", j.State())
	}
	if !bytes.Contains(dev.Bytes(), []byte{0xAA}) || !bytes.Contains(dev.Bytes(), []byte{0x55}) {
		t.Fatalf("expected scanline bytes to reach the device, got %x", dev.Bytes())
	}
}

func TestProcessRasterAbortsOnMalformedHeader(t *testing.T) {
	rec := driver.NewPWG("pwg-test")
	dev := &bufDevice{}

	f, err := os.CreateTemp(t.TempDir(), "bad-*.pwg")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.WriteString("RaS2")
	f.Close()

	j := New(1, "alice", "bad.pwg", "image/pwg-raster")
	j.MarkSpooled(f.Name())

	if err := ProcessJob(j, rec, dev, Default()); err == nil {
		t.Fatalf("expected error for empty raster stream")
	}
	if j.State() != StateAborted {
		t.Fatalf("expected StateAborted, got %v", j.State())
	}
}

func TestProcessJobAbortsOnUnknownFormat(t *testing.T) {
	rec := driver.NewPWG("pwg-test")
	dev := &bufDevice{}

	j := New(1, "alice", "mystery", "application/octet-stream")
	j.MarkSpooled("/nonexistent")

	err := ProcessJob(j, rec, dev, Default())
	if err == nil {
		t.Fatalf("expected error for unrecognized format")
	}
	if j.State() != StateAborted {
		t.Fatalf("expected StateAborted, got %v", j.State())
	}
}

// fakeRawCodec is a minimal driver.Codec stub for exercising the
// vendor-raw passthrough branch independent of any real vendor protocol.
type fakeRawCodec struct{ written *bytes.Buffer }

func (c fakeRawCodec) Format() string { return "application/vnd.test-raw" }
func (c fakeRawCodec) RStartJob(dev device.Device, opts driver.Options) (driver.Scratch, error) {
	return nil, nil
}
func (c fakeRawCodec) RStartPage(dev device.Device, scratch driver.Scratch, opts driver.Options) (driver.Scratch, error) {
	return scratch, nil
}
func (c fakeRawCodec) RWriteLine(dev device.Device, scratch driver.Scratch, y int, line []byte) error {
	return nil
}
func (c fakeRawCodec) REndPage(dev device.Device, scratch driver.Scratch, opts driver.Options) error {
	return nil
}
func (c fakeRawCodec) REndJob(dev device.Device, scratch driver.Scratch, opts driver.Options) error {
	return nil
}
func (c fakeRawCodec) Status(dev device.Device, opts driver.Options) (driver.StateReasons, error) {
	return 0, nil
}
func (c fakeRawCodec) PrintFile(dev device.Device, r io.Reader) error {
	_, err := io.Copy(c.written, r)
	return err
}

func TestProcessPassthroughStreamsVendorRawDocument(t *testing.T) {
	written := &bytes.Buffer{}
	rec := driver.Record{Name: "raw-test", Format: "application/vnd.test-raw", Codec: fakeRawCodec{written: written}}
	dev := &bufDevice{}

	f, err := os.CreateTemp(t.TempDir(), "raw-*.bin")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	f.Write([]byte("^XA^XZ"))
	f.Close()

	j := New(1, "alice", "raw.zpl", rec.Format)
	j.MarkSpooled(f.Name())

	if err := ProcessJob(j, rec, dev, Default()); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if j.State() != StateCompleted {
		t.Fatalf("expected StateCompleted, got %v", j.State())
	}
	if !bytes.Equal(written.Bytes(), []byte("^XA^XZ")) {
		t.Fatalf("expected raw bytes to pass through unchanged, got %q", written.Bytes())
	}
}

func TestProcessRasterHonorsPriorCancellation(t *testing.T) {
	rec := driver.NewPWG("pwg-test")
	dev := &bufDevice{}

	spool := writeRasterFile(t, 8, 100, 1, func() [][]byte {
		lines := make([][]byte, 100)
		for i := range lines {
			lines[i] = []byte{0xFF}
		}
		return lines
	}())

	j := New(1, "alice", "label.pwg", "image/pwg-raster")
	j.MarkSpooled(spool)
	j.Cancel()

	err := ProcessJob(j, rec, dev, Default())
	if err != nil {
		t.Fatalf("ProcessJob should swallow cancellation, got: %v", err)
	}
	if j.State() != StateCanceled {
		t.Fatalf("expected StateCanceled, got %v", j.State())
	}
}

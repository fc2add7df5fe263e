package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

// pwgCodec is the passthrough codec: it copies raster scanlines verbatim
// to the device handle, with no dithering or vendor framing. The catalog
// exposes it as pwg_passthrough_test, and the job-pipeline and printer
// tests use it.
type pwgCodec struct{}

func (pwgCodec) Format() string { return "image/pwg-raster" }

func (pwgCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func (pwgCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return codec.PWGRStartJob(dev), nil
}

func (pwgCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	s := scratch.(*codec.PWGState)
	return s, codec.PWGRStartPage(s)
}

func (pwgCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.PWGRWriteLine(scratch.(*codec.PWGState), line)
}

func (pwgCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.PWGREndPage(scratch.(*codec.PWGState))
}

func (pwgCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	return codec.PWGREndJob(scratch.(*codec.PWGState))
}

func (pwgCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	return 0, nil
}

// NewPWG builds a passthrough driver record.
func NewPWG(name string) Record {
	return Record{
		Name:   name,
		Family: FamilyPWG,
		Format: "image/pwg-raster",
		Codec:  pwgCodec{},
	}
}

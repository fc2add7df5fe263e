package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type siiCodec struct{}

func (siiCodec) Format() string { return "application/vnd.sii-slp" }

func (siiCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func siiOptions(opts Options) codec.SIIOptions {
	return codec.SIIOptions{
		DriverName:         opts.DriverName,
		PrintDarkness:      opts.PrintDarkness,
		DarknessConfigured: opts.DarknessConfigured,
		HighQuality:        opts.HighQuality,
		Resolution:         opts.XResolution,
		CupsWidth:          opts.CupsWidth,
		CupsHeight:         opts.CupsHeight,
	}
}

func (siiCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return nil, codec.SIIRStartJob(dev, opts.DriverName)
}

func (siiCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	return codec.SIIRStartPage(dev, siiOptions(opts), opts.Dither)
}

func (siiCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.SIIRWriteLine(dev, scratch.(*codec.SIIState), y, line)
}

func (siiCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.SIIREndPage(dev, scratch.(*codec.SIIState), siiOptions(opts))
}

func (siiCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	if s, ok := scratch.(*codec.SIIState); ok {
		codec.SIIREndJob(s)
	}
	return nil
}

func (siiCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	return 0, nil
}

// NewSII builds the driver record for a Seiko Instruments SLP printer.
func NewSII(name string, xres int) Record {
	return Record{
		Name:           name,
		Family:         FamilySII,
		Format:         "application/vnd.sii-slp",
		XResolutions:   []int{xres},
		YResolutions:   []int{xres},
		ModeSupported:  LabelModeTearOff,
		ModeConfigured: LabelModeTearOff,
		Codec:          siiCodec{},
	}
}

package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type dymoCodec struct{}

func (dymoCodec) Format() string { return "application/vnd.dymo-lw" }

func (dymoCodec) PrintFile(dev device.Device, r io.Reader) error {
	return codec.DYMOPrintFile(dev, r)
}

func (dymoCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return nil, codec.DYMORStartJob(dev)
}

func (dymoCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	return codec.DYMORStartPage(dev, codec.DYMOOptions{
		PrintDarkness:              opts.PrintDarkness,
		DarknessConfigured:         opts.DarknessConfigured,
		MediaSource:                opts.MediaSource,
		MediaTopMarginHundredthsMM: opts.MediaTopOffsetHundredthsMM,
		YResolution:                opts.YResolution,
		CupsHeight:                 opts.CupsHeight,
		CupsBytesPerLine:           (opts.CupsWidth + 7) / 8,
	})
}

func (dymoCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	_, err := codec.DYMORWriteLine(dev, scratch.(*codec.DYMOState), y, line)
	return err
}

func (dymoCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.DYMOREndPage(dev)
}

func (dymoCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	if s, ok := scratch.(*codec.DYMOState); ok {
		codec.DYMOREndJob(s)
	}
	return nil
}

func (dymoCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	return 0, codec.DYMOStatus()
}

// NewDYMO builds the driver record for a DYMO LabelWriter, identified by
// a driver name of the form "dymo_<model>".
func NewDYMO(name string, xres int) Record {
	return Record{
		Name:           name,
		Family:         FamilyDYMO,
		Format:         "application/vnd.dymo-lw",
		XResolutions:   []int{xres},
		YResolutions:   []int{xres},
		ModeSupported:  LabelModeTearOff,
		ModeConfigured: LabelModeTearOff,
		Codec:          dymoCodec{},
	}
}

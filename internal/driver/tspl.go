package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type tsplCodec struct{}

func (tsplCodec) Format() string { return "application/vnd.tspl" }

func (tsplCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func tsplOrientation(degrees int) codec.TSPLOrientation {
	switch degrees {
	case 90:
		return codec.TSPLLandscape
	case 180:
		return codec.TSPLReversePortrait
	case 270:
		return codec.TSPLReverseLandscape
	default:
		return codec.TSPLPortrait
	}
}

func tsplOptions(opts Options) codec.TSPLOptions {
	copies := opts.Copies
	if copies == 0 {
		copies = 1
	}
	return codec.TSPLOptions{
		PrintDarkness:               opts.PrintDarkness,
		DarknessConfigured:          opts.DarknessConfigured,
		PrintSpeedHundredthsMM:      opts.PrintSpeedHundredthsMM,
		MediaSizeWidthHundredthsMM:  opts.MediaSizeWidthHundredthsMM,
		MediaSizeLengthHundredthsMM: opts.MediaSizeLengthHundredthsMM,
		Orientation:                 tsplOrientation(opts.Orientation),
		Resolution:                  opts.XResolution,
		CupsHeight:                  opts.CupsHeight,
		NumCopies:                   copies,
	}
}

func (tsplCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return codec.TSPLRStartJob(dev, tsplOptions(opts))
}

func (tsplCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	s := scratch.(*codec.TSPLState)
	err := codec.TSPLRStartPage(dev, s, tsplOptions(opts), opts.Dither)
	return s, err
}

func (tsplCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.TSPLRWriteLine(dev, scratch.(*codec.TSPLState), y, line)
}

func (tsplCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.TSPLREndPage(dev, scratch.(*codec.TSPLState), tsplOptions(opts))
}

func (tsplCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	if s, ok := scratch.(*codec.TSPLState); ok {
		codec.TSPLREndJob(s)
	}
	return nil
}

func (tsplCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	return 0, codec.TSPLStatus()
}

// NewTSPL builds the driver record for a TSC TSPL printer.
func NewTSPL(name string, xres []int) Record {
	return Record{
		Name:              name,
		Family:            FamilyTSPL,
		Format:            "application/vnd.tspl",
		XResolutions:      xres,
		YResolutions:      xres,
		ModeSupported:     LabelModeTearOff,
		ModeConfigured:    LabelModeTearOff,
		TrackingSupported: TrackingContinuous | TrackingWeb | TrackingMark,
		Codec:             tsplCodec{},
	}
}

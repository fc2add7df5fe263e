package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type cpclCodec struct{}

func (cpclCodec) Format() string { return "application/vnd.cpcl" }

func (cpclCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func cpclTracking(t TrackingMode) codec.CPCLTracking {
	if t == TrackingContinuous {
		return codec.CPCLTrackingContinuous
	}
	return codec.CPCLTrackingGapOrMark
}

func cpclOptions(opts Options) codec.CPCLOptions {
	copies := opts.Copies
	if copies == 0 {
		copies = 1
	}
	return codec.CPCLOptions{
		XResolution:                opts.XResolution,
		YResolution:                opts.YResolution,
		CupsWidth:                  opts.CupsWidth,
		CupsHeight:                 opts.CupsHeight,
		NumCopies:                  copies,
		PrintDarkness:              opts.PrintDarkness,
		DarknessConfigured:         opts.DarknessConfigured,
		PrintSpeedHundredthsMM:     opts.PrintSpeedHundredthsMM,
		Trim:                       opts.Trim,
		MediaType:                  opts.MediaType,
		Tracking:                   cpclTracking(opts.Tracking),
		MediaTopOffsetHundredthsMM: opts.MediaTopOffsetHundredthsMM,
	}
}

func (cpclCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return codec.CPCLRStartJob(), nil
}

func (cpclCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	s := scratch.(*codec.CPCLState)
	err := codec.CPCLRStartPage(dev, s, cpclOptions(opts), opts.Dither)
	return s, err
}

func (cpclCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.CPCLRWriteLine(dev, scratch.(*codec.CPCLState), y, line)
}

func (cpclCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.CPCLREndPage(dev, scratch.(*codec.CPCLState), cpclOptions(opts))
}

func (cpclCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	if s, ok := scratch.(*codec.CPCLState); ok {
		codec.CPCLREndJob(s)
	}
	return nil
}

func (cpclCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	return 0, nil
}

// NewCPCL builds the driver record for an HPRT/mobile CPCL printer.
func NewCPCL(name string, xres int) Record {
	return Record{
		Name:              name,
		Family:            FamilyCPCL,
		Format:            "application/vnd.cpcl",
		XResolutions:      []int{xres},
		YResolutions:      []int{xres},
		ModeSupported:     LabelModeTearOff | LabelModeCutter,
		ModeConfigured:    LabelModeTearOff,
		TrackingSupported: TrackingContinuous | TrackingWeb | TrackingMark,
		Codec:             cpclCodec{},
	}
}

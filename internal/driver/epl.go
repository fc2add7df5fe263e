package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type eplCodec struct{}

func (eplCodec) Format() string { return "application/vnd.eltron-epl" }

func (eplCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func (eplCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return codec.EPLRStartJob(), nil
}

func (eplCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	s := scratch.(*codec.EPLState)
	err := codec.EPLRStartPage(dev, s, codec.EPLOptions{
		XResolution:            opts.XResolution,
		CupsHeight:             opts.CupsHeight,
		PrintDarkness:          opts.PrintDarkness,
		DarknessConfigured:     opts.DarknessConfigured,
		PrintSpeedHundredthsMM: opts.PrintSpeedHundredthsMM,
		Trim:                   opts.Trim,
	}, opts.Dither)
	return s, err
}

func (eplCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.EPLRWriteLine(dev, scratch.(*codec.EPLState), y, line)
}

func (eplCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.EPLREndPage(dev, scratch.(*codec.EPLState), codec.EPLOptions{
		CupsHeight: opts.CupsHeight,
		Trim:       opts.Trim,
	})
}

func (eplCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	if s, ok := scratch.(*codec.EPLState); ok {
		codec.EPLREndJob(s)
	}
	return nil
}

func (eplCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	return 0, nil
}

// NewEPL builds the driver record for a Zebra EPL2 (page-mode) printer.
func NewEPL(name string, xres int, cutter bool) Record {
	mode := LabelModeTearOff | LabelModeApplicator | LabelModeCutter |
		LabelModeCutterDelayed | LabelModeKiosk | LabelModePeelOff |
		LabelModePeelOffPrepeel | LabelModeRewind | LabelModeRFID
	return Record{
		Name:              name,
		Family:            FamilyEPL,
		Format:            "application/vnd.eltron-epl",
		XResolutions:      []int{xres},
		YResolutions:      []int{xres},
		ModeSupported:     mode,
		ModeConfigured:    LabelModeTearOff,
		TrackingSupported: TrackingContinuous | TrackingWeb | TrackingMark,
		SupportsTrim:      cutter,
		Codec:             eplCodec{},
	}
}

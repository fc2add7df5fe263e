package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type zplCodec struct{}

func (zplCodec) Format() string { return "application/vnd.zebra-zpl" }

func (zplCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func zplOptions(opts Options) codec.ZPLOptions {
	return codec.ZPLOptions{
		Resolution:             opts.XResolution,
		PrintSpeedHundredthsMM: opts.PrintSpeedHundredthsMM,
		PrintDarkness:          opts.PrintDarkness,
		DarknessConfigured:     opts.DarknessConfigured,
		TearOffsetConfigured:   opts.MediaTopOffsetHundredthsMM,
		ModeConfigured:         zplMode(opts.Mode),
		MediaType:              opts.MediaType,
		MediaTopOffset:         opts.MediaTopOffsetHundredthsMM,
		DriverName:             opts.DriverName,
		Trim:                   opts.Trim,
		CupsWidth:              opts.CupsWidth,
		CupsHeight:             opts.CupsHeight,
	}
}

func (zplCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return nil, codec.ZPLRStartJob(dev, zplOptions(opts))
}

func (zplCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	return codec.ZPLRStartPage(dev, zplOptions(opts), opts.Dither, opts.CupsHeight)
}

func (zplCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	_, err := codec.ZPLRWriteLine(dev, scratch.(*codec.ZPLState), y, line)
	return err
}

func (zplCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.ZPLREndPage(dev, scratch.(*codec.ZPLState), zplOptions(opts), opts.YResolution, zplTracking(opts.Tracking))
}

func (zplCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	if s, ok := scratch.(*codec.ZPLState); ok {
		codec.ZPLREndJob(s)
	}
	return nil
}

func (zplCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	status, err := codec.ZPLGetStatus(dev)
	if err != nil {
		return 0, err
	}

	var r StateReasons
	if status.Errors&codec.ZPLErrorMediaOut != 0 {
		r |= ReasonMediaEmpty
	}
	if status.Errors&codec.ZPLErrorPaperJam != 0 {
		r |= ReasonMediaJam
	}
	if status.Errors&codec.ZPLErrorPaused != 0 {
		r |= ReasonOffline
	}
	if status.Errors&codec.ZPLErrorRibbonOut != 0 {
		r |= ReasonMarkerEmpty
	}
	if status.Errors&^(codec.ZPLErrorMediaOut|codec.ZPLErrorPaperJam|codec.ZPLErrorPaused) != 0 {
		r |= ReasonOther
	}

	if status.Warnings&codec.ZPLWarningPaperAlmostOut != 0 {
		r |= ReasonMediaLow
	}
	if status.Warnings&^codec.ZPLWarningPaperAlmostOut != 0 {
		r |= ReasonOther
	}

	return r, nil
}

// NewZPL builds the driver record for a Zebra ZPL printer.
func NewZPL(name string, xres []int) Record {
	return Record{
		Name:         name,
		Family:       FamilyZPL,
		Format:       "application/vnd.zebra-zpl",
		XResolutions: xres,
		YResolutions: xres,
		ModeSupported: LabelModeTearOff | LabelModeApplicator | LabelModeCutter |
			LabelModeCutterDelayed | LabelModeKiosk | LabelModePeelOff |
			LabelModePeelOffPrepeel | LabelModeRewind | LabelModeRFID,
		ModeConfigured:    LabelModeTearOff,
		TrackingSupported: TrackingContinuous | TrackingWeb | TrackingMark,
		Codec:             zplCodec{},
	}
}

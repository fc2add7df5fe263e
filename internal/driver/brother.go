package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type brotherCodec struct{}

func (brotherCodec) Format() string { return "application/vnd.brother-ql" }

func (brotherCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func brotherOptions(opts Options) codec.BrotherOptions {
	return codec.BrotherOptions{
		PrintDarkness:               opts.PrintDarkness,
		DarknessConfigured:          opts.DarknessConfigured,
		MediaType:                   opts.MediaType,
		MediaSizeWidthHundredthsMM:  opts.MediaSizeWidthHundredthsMM,
		MediaSizeLengthHundredthsMM: opts.MediaSizeLengthHundredthsMM,
		Resolution:                  opts.XResolution,
		CupsHeight:                  opts.CupsHeight,
	}
}

func (brotherCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return codec.BrotherRStartJob(dev, opts.DriverName, brotherOptions(opts))
}

func (brotherCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	s := scratch.(*codec.BrotherState)
	err := codec.BrotherRStartPage(dev, s, opts.Dither, brotherOptions(opts))
	return s, err
}

func (brotherCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.BrotherRWriteLine(dev, scratch.(*codec.BrotherState), y, line)
}

func (brotherCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.BrotherREndPage(dev, scratch.(*codec.BrotherState), brotherOptions(opts))
}

func (brotherCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	s, ok := scratch.(*codec.BrotherState)
	if !ok {
		return nil
	}
	return codec.BrotherREndJob(dev, s)
}

func (brotherCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	status, err := codec.BrotherGetStatus(dev)
	if err != nil {
		return 0, err
	}
	var r StateReasons
	if status.Reasons&codec.BrotherReasonMediaEmpty != 0 {
		r |= ReasonMediaEmpty
	}
	if status.Reasons&codec.BrotherReasonMediaNeeded != 0 {
		r |= ReasonMediaEmpty
	}
	if status.Reasons&codec.BrotherReasonCoverOpen != 0 {
		r |= ReasonCoverOpen
	}
	if status.Reasons&codec.BrotherReasonMediaJam != 0 {
		r |= ReasonMediaJam
	}
	if status.Reasons&codec.BrotherReasonOther != 0 {
		r |= ReasonOther
	}
	return r, nil
}

// NewBrother builds the driver record for a Brother QL/PT printer.
func NewBrother(name string, xres int) Record {
	return Record{
		Name:           name,
		Family:         FamilyBrother,
		Format:         "application/vnd.brother-ql",
		XResolutions:   []int{xres},
		YResolutions:   []int{xres},
		ModeSupported:  LabelModeTearOff | LabelModeCutter,
		ModeConfigured: LabelModeTearOff,
		Codec:          brotherCodec{},
	}
}

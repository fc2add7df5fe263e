package driver

import (
	"io"

	"lprintd/internal/codec"
	"lprintd/internal/device"
)

type zjCodec struct{}

func (zjCodec) Format() string { return "application/vnd.zj-escpos" }

func (zjCodec) PrintFile(dev device.Device, r io.Reader) error {
	return passthroughPrintFile(dev, r)
}

func (zjCodec) RStartJob(dev device.Device, opts Options) (Scratch, error) {
	return codec.ZJRStartJob(dev)
}

func (zjCodec) RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error) {
	s := scratch.(*codec.ZJState)
	codec.ZJRStartPage(s, opts.MediaSizeLengthHundredthsMM, (opts.CupsWidth+7)/8)
	return s, nil
}

func (zjCodec) RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error {
	return codec.ZJRWriteLine(dev, scratch.(*codec.ZJState), line)
}

func (zjCodec) REndPage(dev device.Device, scratch Scratch, opts Options) error {
	return codec.ZJREndPage(dev, scratch.(*codec.ZJState))
}

func (zjCodec) REndJob(dev device.Device, scratch Scratch, opts Options) error {
	return codec.ZJREndJob(dev, opts.MediaTopOffsetHundredthsMM, opts.Trim)
}

func (zjCodec) Status(dev device.Device, opts Options) (StateReasons, error) {
	status, err := codec.ZJGetStatus(dev)
	if err != nil {
		return 0, err
	}

	var r StateReasons
	if status.Printer&codec.ZJPrinterOffline != 0 {
		r |= ReasonOffline
	}
	if status.Offline&codec.ZJOfflineCover != 0 {
		r |= ReasonCoverOpen
	}
	if status.Offline&codec.ZJOfflinePaper != 0 {
		r |= ReasonMediaEmpty
	}
	if status.Offline&codec.ZJOfflineError != 0 {
		r |= ReasonOther
	}
	if status.Error&(codec.ZJErrorCutter|codec.ZJErrorUnrecoverable|codec.ZJErrorRecoverable) != 0 {
		r |= ReasonOther
	}
	if status.Feed&codec.ZJFeedNearEnd != 0 {
		r |= ReasonMediaLow
	}
	if status.Feed&codec.ZJFeedPresence != 0 {
		r |= ReasonMediaEmpty
	}

	return r, nil
}

// NewZJ builds the driver record for a Zijiang ESC/POS-style printer.
func NewZJ(name string, xres int) Record {
	return Record{
		Name:           name,
		Family:         FamilyZJ,
		Format:         "application/vnd.zj-escpos",
		XResolutions:   []int{xres},
		YResolutions:   []int{xres},
		ModeSupported:  LabelModeTearOff | LabelModeCutter,
		ModeConfigured: LabelModeTearOff,
		Codec:          zjCodec{},
	}
}

package codec

import (
	"lprintd/internal/device"
	"lprintd/internal/dither"
)

// TSPLOrientation mirrors the IPP orientation-requested keywords TSPL's
// DIRECTION command distinguishes.
type TSPLOrientation int

const (
	TSPLPortrait TSPLOrientation = iota
	TSPLLandscape
	TSPLReversePortrait
	TSPLReverseLandscape
)

// TSPLOptions carries the job/driver options the TSPL codec reads.
type TSPLOptions struct {
	PrintDarkness               int
	DarknessConfigured          int
	PrintSpeedHundredthsMM      int
	MediaSizeWidthHundredthsMM  int
	MediaSizeLengthHundredthsMM int
	Orientation                 TSPLOrientation
	Resolution                  int
	CupsHeight                  int
	NumCopies                   int
}

// TSPLState is the per-job driver-private state: just the dither engine,
// since TSPL streams one BITMAP command's worth of bytes directly rather
// than tracking any cross-line state of its own.
type TSPLState struct {
	dith *dither.State
}

// TSPLRStartJob has nothing to set up; TSPL carries no job-scoped state
// beyond what rstartpage allocates per page.
func TSPLRStartJob(dev device.Device, opts TSPLOptions) (*TSPLState, error) {
	return &TSPLState{}, nil
}

// TSPLRStartPage allocates the dither engine and writes the page setup:
// physical label size, print direction, density, speed, and the opening of
// the BITMAP command whose pixel data rwriteline streams.
func TSPLRStartPage(dev device.Device, s *TSPLState, opts TSPLOptions, ditherOpts dither.Options) error {
	gamma := 1.0
	if opts.Resolution == 300 {
		gamma = 1.2
	}
	d, err := dither.Alloc(ditherOpts, gamma)
	if err != nil {
		return err
	}
	s.dith = d

	darkness := opts.PrintDarkness + opts.DarknessConfigured
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}

	speed := opts.PrintSpeedHundredthsMM / 2540
	if speed < 1 {
		speed = 1
	}

	if _, err := dev.Printf("SIZE %d mm,%d mm\n", opts.MediaSizeWidthHundredthsMM/100, opts.MediaSizeLengthHundredthsMM/100); err != nil {
		return err
	}

	var direction string
	switch opts.Orientation {
	case TSPLLandscape:
		direction = "DIRECTION 90,0\n"
	case TSPLReversePortrait:
		direction = "DIRECTION 180,0\n"
	case TSPLReverseLandscape:
		direction = "DIRECTION 270,0\n"
	default:
		direction = "DIRECTION 0,0\n"
	}
	if _, err := dev.Printf("%s", direction); err != nil {
		return err
	}

	if _, err := dev.Printf("DENSITY %d\n", (darkness*15+50)/100); err != nil {
		return err
	}
	if _, err := dev.Printf("SPEED %d\n", speed); err != nil {
		return err
	}

	if _, err := dev.Printf("CLS\n"); err != nil {
		return err
	}
	_, err = dev.Printf("BITMAP 0,0,%d,%d,1,", d.OutWidth(), opts.CupsHeight)
	return err
}

// TSPLRWriteLine dithers scanline y and streams its packed bytes straight
// into the open BITMAP command.
func TSPLRWriteLine(dev device.Device, s *TSPLState, y int, line []byte) error {
	if !s.dith.Line(y, line) {
		return nil
	}
	_, err := dev.Write(s.dith.Output)
	return err
}

// TSPLREndPage flushes the final buffered scanline and issues the print/cut
// command for NumCopies copies.
func TSPLREndPage(dev device.Device, s *TSPLState, opts TSPLOptions) error {
	if err := TSPLRWriteLine(dev, s, opts.CupsHeight, nil); err != nil {
		return err
	}
	if _, err := dev.Printf("PRINT %d,1\n", opts.NumCopies); err != nil {
		return err
	}
	return dev.Flush()
}

// TSPLREndJob releases the job's dither state.
func TSPLREndJob(s *TSPLState) {
	s.dith = nil
}

// TSPLStatus reports printer status; TSPL status polling is not yet
// implemented upstream either.
func TSPLStatus() error { return nil }

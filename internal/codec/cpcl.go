package codec

import (
	"strings"

	"lprintd/internal/device"
	"lprintd/internal/dither"
)

// CPCLTracking mirrors the media-tracking keyword CPCL's FORM command
// reacts to.
type CPCLTracking int

const (
	CPCLTrackingContinuous CPCLTracking = iota
	CPCLTrackingGapOrMark
)

// CPCLOptions carries the job/driver options the CPCL codec reads.
type CPCLOptions struct {
	XResolution, YResolution  int
	CupsWidth, CupsHeight     int
	NumCopies                 int
	PrintDarkness             int
	DarknessConfigured        int
	PrintSpeedHundredthsMM    int
	Trim                      bool
	MediaType                 string
	Tracking                  CPCLTracking
	MediaTopOffsetHundredthsMM int
}

// CPCLState is the per-job driver-private state: just the dither engine,
// since CPCL streams each non-blank scanline as its own "CG" bitmap command
// rather than accumulating a page buffer.
type CPCLState struct {
	dith *dither.State
}

// CPCLRStartJob has no job-level setup.
func CPCLRStartJob() *CPCLState { return &CPCLState{} }

// CPCLRStartPage allocates the dither engine and writes the page geometry
// header.
func CPCLRStartPage(dev device.Device, s *CPCLState, opts CPCLOptions, ditherOpts dither.Options) error {
	gamma := 1.0
	if opts.XResolution == 300 {
		gamma = 1.2
	}
	d, err := dither.Alloc(ditherOpts, gamma)
	if err != nil {
		return err
	}
	s.dith = d

	copies := opts.NumCopies
	if copies == 0 {
		copies = 1
	}
	if _, err := dev.Printf("! 0 %d %d %d %d\r\n", opts.XResolution, opts.YResolution, opts.CupsHeight, copies); err != nil {
		return err
	}
	if _, err := dev.Printf("PAGE-WIDTH %d\r\n", opts.CupsWidth); err != nil {
		return err
	}
	if _, err := dev.Printf("PAGE-HEIGHT %d\r\n", opts.CupsHeight); err != nil {
		return err
	}
	if _, err := dev.Printf("CLS\n"); err != nil {
		return err
	}
	_, err = dev.Printf("BITMAP 0,0,%d,%d,1,", d.OutWidth(), opts.CupsHeight)
	return err
}

// CPCLRWriteLine dithers scanline y and, if it is non-blank, emits it as a
// standalone "CG" graphic command at row y; blank lines are skipped
// entirely, since CPCL labels are usually mostly whitespace.
func CPCLRWriteLine(dev device.Device, s *CPCLState, y int, line []byte) error {
	if !s.dith.Line(y, line) {
		return nil
	}

	out := s.dith.Output
	blank := out[0] == 0
	if blank {
		for _, b := range out[1:] {
			if b != 0 {
				blank = false
				break
			}
		}
	}
	if blank {
		return nil
	}

	if _, err := dev.Printf("CG %d 1 0 %d ", len(out), y); err != nil {
		return err
	}
	if _, err := dev.Write(out); err != nil {
		return err
	}
	if _, err := dev.Printf("\r\n"); err != nil {
		return err
	}
	return dev.Flush()
}

// CPCLREndPage flushes the final scanline, writes the present-offset,
// darkness, speed, optional cut, and tracking-mode commands, and triggers
// the print.
func CPCLREndPage(dev device.Device, s *CPCLState, opts CPCLOptions) error {
	if err := CPCLRWriteLine(dev, s, opts.CupsHeight, nil); err != nil {
		return err
	}

	offset := opts.MediaTopOffsetHundredthsMM * opts.YResolution / 2540
	if _, err := dev.Printf("PRESENT-AT %d 4\r\n", offset); err != nil {
		return err
	}

	darkness := opts.PrintDarkness + opts.DarknessConfigured
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}
	if _, err := dev.Printf("TONE %d\r\n", 2*darkness); err != nil {
		return err
	}

	if opts.PrintSpeedHundredthsMM > 0 {
		if _, err := dev.Printf("SPEED %d\r\n", 5*opts.PrintSpeedHundredthsMM/(4*2540)); err != nil {
			return err
		}
	}

	if opts.Trim {
		if _, err := dev.Printf("CUT\r\n"); err != nil {
			return err
		}
	}

	tracking := opts.Tracking
	if opts.MediaType != "" && !strings.EqualFold(opts.MediaType, "labels") {
		tracking = CPCLTrackingContinuous
	}
	if tracking != CPCLTrackingContinuous {
		if _, err := dev.Printf("FORM\r\n"); err != nil {
			return err
		}
	}

	if _, err := dev.Printf("PRINT\r\n"); err != nil {
		return err
	}
	return dev.Flush()
}

// CPCLREndJob releases the job's dither state.
func CPCLREndJob(s *CPCLState) {
	s.dith = nil
}

package codec

import (
	"lprintd/internal/device"
	"lprintd/internal/dither"
)

// EPLOptions carries the job/driver options the EPL2 codec reads.
type EPLOptions struct {
	XResolution            int
	CupsHeight             int
	PrintDarkness          int
	DarknessConfigured     int
	PrintSpeedHundredthsMM int
	Trim                   bool
}

// EPLState is the per-job driver-private state: just the dither engine,
// since EPL2 streams each non-blank scanline as its own "GW" command.
type EPLState struct {
	dith *dither.State
}

// EPLRStartJob has no job-level setup.
func EPLRStartJob() *EPLState { return &EPLState{} }

// EPLRStartPage allocates the dither engine and writes the new-label,
// darkness, speed, and label-width commands.
func EPLRStartPage(dev device.Device, s *EPLState, opts EPLOptions, ditherOpts dither.Options) error {
	gamma := 1.0
	if opts.XResolution == 300 {
		gamma = 1.2
	}
	d, err := dither.Alloc(ditherOpts, gamma)
	if err != nil {
		return err
	}
	s.dith = d

	if _, err := dev.Printf("\nN\n"); err != nil {
		return err
	}

	darkness := opts.PrintDarkness + opts.DarknessConfigured
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}
	if _, err := dev.Printf("D%d\n", 15*darkness/100); err != nil {
		return err
	}

	if ips := opts.PrintSpeedHundredthsMM / 2540; ips > 0 {
		if _, err := dev.Printf("S%d\n", ips); err != nil {
			return err
		}
	}

	_, err = dev.Printf("q%d\n", d.OutWidth()*8)
	return err
}

// EPLRWriteLine dithers scanline y and, if it is non-blank, emits it as a
// standalone "GW" graphic command at row y; blank lines are skipped.
func EPLRWriteLine(dev device.Device, s *EPLState, y int, line []byte) error {
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

	if _, err := dev.Printf("GW0,%d,%d,1\n", y, len(out)); err != nil {
		return err
	}
	if _, err := dev.Write(out); err != nil {
		return err
	}
	_, err := dev.Printf("\n")
	return err
}

// EPLREndPage flushes the final scanline, triggers the print, and cuts if
// configured.
func EPLREndPage(dev device.Device, s *EPLState, opts EPLOptions) error {
	if err := EPLRWriteLine(dev, s, opts.CupsHeight, nil); err != nil {
		return err
	}
	if _, err := dev.Printf("P1\n"); err != nil {
		return err
	}
	if opts.Trim {
		if _, err := dev.Printf("C\n"); err != nil {
			return err
		}
	}
	return dev.Flush()
}

// EPLREndJob releases the job's dither state.
func EPLREndJob(s *EPLState) {
	s.dith = nil
}

package codec

import (
	"io"
	"strings"

	"lprintd/internal/device"
	"lprintd/internal/lperr"
)

// dymoReset is the 101-escape printer-reset sequence DYMO LabelWriter
// printers use both before a raw passthrough job and at the top of every
// rasterized job.
var dymoReset = strings.Repeat("\x1b", 101) + "@"

// dymoDensity maps a 0-100 combined darkness value, scaled to one of 4
// discrete printer density levels, to the corresponding ESC command letter.
const dymoDensity = "cdeg"

// DYMOState is the per-job driver-private state for the DYMO function
// vector: the imageable-row window and the run of blank scanlines fed but
// not yet flushed to the printer.
type DYMOState struct {
	ystart, yend int
	feed         int
}

// DYMOOptions carries the subset of job/driver options the DYMO codec
// reads.
type DYMOOptions struct {
	PrintDarkness              int
	DarknessConfigured         int
	MediaSource                string // "alternate-roll" selects tray 2
	MediaTopMarginHundredthsMM int
	YResolution                int
	CupsHeight                 int
	CupsBytesPerLine           int
}

// DYMOPrintFile sends a pre-rendered vendor-format file straight through
// after the printer-reset sequence, for the raw "application/vnd.dymo-lw"
// passthrough path.
func DYMOPrintFile(dev device.Device, r io.Reader) error {
	if _, err := dev.Printf("%s", dymoReset); err != nil {
		return err
	}
	_, err := io.Copy(dev, r)
	return err
}

// DYMORStartJob resets the printer at the top of every job.
func DYMORStartJob(dev device.Device) error {
	_, err := dev.Printf("%s", dymoReset)
	return err
}

// DYMORStartPage programs the page geometry and density and returns the
// driver-private state for the rest of the page. LabelWriter printers only
// accept lines up to 256 bytes wide.
func DYMORStartPage(dev device.Device, opts DYMOOptions) (*DYMOState, error) {
	if opts.CupsBytesPerLine > 256 {
		return nil, lperr.New(lperr.FormatMalformed, "dymo: raster line too wide for printer")
	}

	if _, err := dev.Printf("\x1bQ%c%c", 0, 0); err != nil {
		return nil, err
	}
	if _, err := dev.Printf("\x1bB%c", 0); err != nil {
		return nil, err
	}
	if _, err := dev.Printf("\x1bL%c%c", byte(opts.CupsHeight>>8), byte(opts.CupsHeight)); err != nil {
		return nil, err
	}
	if _, err := dev.Printf("\x1bD%c", byte(opts.CupsBytesPerLine-1)); err != nil {
		return nil, err
	}
	source := 1
	if opts.MediaSource == "alternate-roll" {
		source = 2
	}
	if _, err := dev.Printf("\x1bq%d", source); err != nil {
		return nil, err
	}

	darkness := opts.PrintDarkness + opts.DarknessConfigured
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}
	if _, err := dev.Printf("\x1b%c", dymoDensity[3*darkness/100]); err != nil {
		return nil, err
	}

	s := &DYMOState{
		feed:   0,
		ystart: opts.MediaTopMarginHundredthsMM * opts.YResolution / 2540,
	}
	s.yend = opts.CupsHeight - s.ystart
	return s, nil
}

// DYMORWriteLine writes one already-dithered 1-bit scanline, accumulating a
// feed count across runs of blank lines instead of sending them: the
// LabelWriter protocol's "feed N dots" command is far cheaper than sending
// N blank rows of bitmap data.
func DYMORWriteLine(dev device.Device, s *DYMOState, y int, line []byte) (bool, error) {
	if y < s.ystart || y >= s.yend {
		return false, nil
	}

	blank := true
	if len(line) > 0 {
		first := line[0]
		if first != 0 {
			blank = false
		} else {
			for _, b := range line[1:] {
				if b != first {
					blank = false
					break
				}
			}
		}
	}

	if !blank {
		if s.feed > 0 {
			for s.feed > 255 {
				if _, err := dev.Printf("\x1bf\x01%c", byte(255)); err != nil {
					return false, err
				}
				s.feed -= 255
			}
			if _, err := dev.Printf("\x1bf\x01%c", byte(s.feed)); err != nil {
				return false, err
			}
			s.feed = 0
		}

		buf := make([]byte, len(line))
		buf[0] = 0x16
		copy(buf[1:], line[1:])
		if _, err := dev.Write(buf); err != nil {
			return false, err
		}
	} else {
		s.feed++
	}

	return true, nil
}

// DYMOREndPage ejects the label.
func DYMOREndPage(dev device.Device) error {
	_, err := dev.Printf("\x1bE")
	return err
}

// DYMOREndJob releases the job's driver-private state; there is no
// end-of-job device I/O.
func DYMOREndJob(s *DYMOState) {
	*s = DYMOState{}
}

// DYMOStatus reports printer status; the reference driver treats DYMO
// LabelWriters as always reachable once the device URI opens, since the
// protocol has no status query.
func DYMOStatus() error { return nil }

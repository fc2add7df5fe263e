package codec

import (
	"time"

	"lprintd/internal/device"
	"lprintd/internal/dither"
)

// SII command bytes, from the SLP (Smart Label Printer) protocol Seiko
// Instruments' printers speak.
const (
	siiCmdPrint    = 0x04
	siiCmdMargin   = 0x06
	siiCmdVertTab  = 0x0B
	siiCmdFormFeed = 0x0C
	siiCmdSetSpeed = 0x0D
	siiCmdDensity  = 0x0E
	siiCmdReset    = 0x0F
	siiCmdFineMode = 0x17
)

// siiModelNumber extracts the numeric model suffix from a driver name like
// "sii_slp100" (the digits starting at offset 7, past "sii_slp").
func siiModelNumber(driverName string) int {
	if len(driverName) <= 7 {
		return 0
	}
	n := 0
	for _, r := range driverName[7:] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// siiMaxWidth returns the printer's maximum print width in dots, which
// varies by model.
func siiMaxWidth(driverName string) int {
	switch siiModelNumber(driverName) {
	case 100, 410:
		return 192
	case 200, 240, 420, 430:
		return 384
	default:
		return 576
	}
}

// siiHasFineMode reports whether a model uses the fine-mode quality
// command rather than the set-speed command.
func siiHasFineMode(driverName string) bool {
	switch siiModelNumber(driverName) {
	case 100, 200, 240, 410, 420, 430:
		return true
	default:
		return false
	}
}

// SIIOptions carries the job/driver options the SII codec reads.
type SIIOptions struct {
	DriverName         string
	PrintDarkness      int
	DarknessConfigured int
	HighQuality        bool
	Resolution         int
	CupsWidth          int
	CupsHeight         int
}

// SIIState is the per-job driver-private state: the dither engine plus the
// count of consecutive blank scanlines not yet fed past.
type SIIState struct {
	dith   *dither.State
	blanks int
}

// SIIRStartJob resets SLP-100/410 printers, which need the explicit reset
// command and a settling delay before they'll accept further commands;
// other models need no job-level setup.
func SIIRStartJob(dev device.Device, driverName string) error {
	model := siiModelNumber(driverName)
	if model != 100 && model != 410 {
		return nil
	}
	if _, err := dev.Write([]byte{siiCmdReset}); err != nil {
		return err
	}
	if err := dev.Flush(); err != nil {
		return err
	}
	time.Sleep(3 * time.Second)
	return nil
}

// SIIRStartPage allocates the dither engine and writes the page-level
// margin, density, and quality commands.
func SIIRStartPage(dev device.Device, opts SIIOptions, ditherOpts dither.Options) (*SIIState, error) {
	gamma := 1.0
	if opts.Resolution == 300 {
		gamma = 1.2
	}
	d, err := dither.Alloc(ditherOpts, gamma)
	if err != nil {
		return nil, err
	}

	margin := int(12.7 * float64(siiMaxWidth(opts.DriverName)-opts.CupsWidth) / float64(opts.Resolution))
	if _, err := dev.Write([]byte{siiCmdMargin, byte(margin)}); err != nil {
		return nil, err
	}

	darkness := opts.DarknessConfigured + opts.PrintDarkness
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}
	if _, err := dev.Write([]byte{siiCmdDensity, byte(3 * darkness / 100)}); err != nil {
		return nil, err
	}

	var qualityByte byte
	if opts.HighQuality {
		if siiHasFineMode(opts.DriverName) {
			qualityByte = 0x01
		} else {
			qualityByte = 0x02
		}
	}
	cmd := byte(siiCmdSetSpeed)
	if siiHasFineMode(opts.DriverName) {
		cmd = siiCmdFineMode
	}
	if _, err := dev.Write([]byte{cmd, qualityByte}); err != nil {
		return nil, err
	}

	return &SIIState{dith: d}, nil
}

// SIIRWriteLine dithers scanline y, accumulating a count of blank lines to
// feed past with a single vertical-tab command instead of sending each as
// bitmap data.
func SIIRWriteLine(dev device.Device, s *SIIState, y int, line []byte) error {
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
		s.blanks++
		return nil
	}

	for s.blanks > 0 {
		switch {
		case s.blanks == 1:
			if _, err := dev.Printf("\n"); err != nil {
				return err
			}
			s.blanks = 0
		case s.blanks < 255:
			if _, err := dev.Write([]byte{siiCmdVertTab, byte(s.blanks)}); err != nil {
				return err
			}
			s.blanks = 0
		default:
			if _, err := dev.Write([]byte{siiCmdVertTab, 255}); err != nil {
				return err
			}
			s.blanks -= 255
		}
	}

	if _, err := dev.Write([]byte{siiCmdPrint, byte(len(out))}); err != nil {
		return err
	}
	_, err := dev.Write(out)
	return err
}

// SIIREndPage flushes the final scanline and ejects the label.
func SIIREndPage(dev device.Device, s *SIIState, opts SIIOptions) error {
	if err := SIIRWriteLine(dev, s, opts.CupsHeight, nil); err != nil {
		return err
	}
	if _, err := dev.Write([]byte{siiCmdFormFeed}); err != nil {
		return err
	}
	return dev.Flush()
}

// SIIREndJob releases the job's dither state.
func SIIREndJob(s *SIIState) {
	s.dith = nil
}

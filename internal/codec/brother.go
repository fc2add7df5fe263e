package codec

import (
	"strings"

	"lprintd/internal/device"
	"lprintd/internal/dither"
	"lprintd/internal/lperr"
)

// BrotherReason is a bitmask of printer-state-reasons Brother's raster
// status query can report.
type BrotherReason uint

const (
	BrotherReasonMediaEmpty BrotherReason = 1 << iota
	BrotherReasonMediaNeeded
	BrotherReasonCoverOpen
	BrotherReasonMediaJam
	BrotherReasonOther
)

// BrotherStatus is the decoded form of the 32-byte status block Brother
// QL/PT printers return for an "\x1biS" status request.
type BrotherStatus struct {
	Reasons               BrotherReason
	MediaWidthHundredths  int
	MediaLengthHundredths int
}

// BrotherOptions carries the job/driver options the Brother codec reads.
type BrotherOptions struct {
	PrintDarkness               int
	DarknessConfigured          int
	MediaType                   string // "continuous" selects the roll-cutting behavior
	MediaSizeWidthHundredthsMM  int
	MediaSizeLengthHundredthsMM int
	Resolution                  int
	CupsHeight                  int
	Page                        int
}

// BrotherState is the per-job driver-private state: the dither engine plus
// the accumulated page raster buffer, since QL/PT printers want the whole
// label's compressed raster sent as one block behind a print-information
// header that names its total byte count up front.
type BrotherState struct {
	dith       *dither.State
	isPTSeries bool
	isQL800    bool
	buffer     []byte
	count      int
}

func brotherIsContinuous(mediaType string) bool {
	return strings.HasPrefix(mediaType, "continuous")
}

// BrotherGetStatus requests and parses the printer's raster status block.
// A short read is treated as a transport failure, not a protocol error: the
// reference driver silently ignores a failed status poll during
// rstartjob's reset sequence but a caller polling status on its own should
// see the distinction.
func BrotherGetStatus(dev device.Device) (BrotherStatus, error) {
	if _, err := dev.Printf("\x1biS"); err != nil {
		return BrotherStatus{}, err
	}

	buf := make([]byte, 32)
	n, err := dev.Read(buf)
	if err != nil {
		return BrotherStatus{}, err
	}
	if n < len(buf) {
		return BrotherStatus{}, lperr.New(lperr.TransportIO, "brother: short status read")
	}

	var reasons BrotherReason
	if buf[8]&0x03 != 0 {
		reasons |= BrotherReasonMediaEmpty
	}
	if buf[8]&0xfc != 0 {
		reasons |= BrotherReasonOther
	}
	if buf[9]&0x01 != 0 {
		reasons |= BrotherReasonMediaNeeded
	}
	if buf[9]&0x10 != 0 {
		reasons |= BrotherReasonCoverOpen
	}
	if buf[9]&0x40 != 0 {
		reasons |= BrotherReasonMediaJam
	}
	if buf[9]&0xae != 0 {
		reasons |= BrotherReasonOther
	}

	return BrotherStatus{
		Reasons:               reasons,
		MediaWidthHundredths:  100 * int(buf[10]),
		MediaLengthHundredths: 100 * int(buf[17]),
	}, nil
}

// BrotherRStartJob resets the printer (a short reset for PT-series tape
// printers, a long one for QL-series label printers), polls status once as
// the reference driver does (best-effort; its failure does not abort the
// job), switches into raster mode, and sets darkness.
func BrotherRStartJob(dev device.Device, driverName string, opts BrotherOptions) (*BrotherState, error) {
	s := &BrotherState{
		isPTSeries: strings.HasPrefix(driverName, "brother_pt-"),
		isQL800:    driverName == "brother_ql800",
	}

	resetLen := 400
	if s.isPTSeries {
		resetLen = 100
	}
	if _, err := dev.Write(make([]byte, resetLen)); err != nil {
		return nil, err
	}

	_, _ = BrotherGetStatus(dev) // best-effort, matches the reference driver

	if _, err := dev.Printf("\x1b@\x1bia\x01"); err != nil {
		return nil, err
	}

	darkness := opts.PrintDarkness + opts.DarknessConfigured
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}
	if _, err := dev.Printf("\x1biD%c", byte(4*darkness/100+1)); err != nil {
		return nil, err
	}

	return s, nil
}

// BrotherRStartPage ejects the previous page (for page > 0) and allocates
// the dither state for the new one.
func BrotherRStartPage(dev device.Device, s *BrotherState, ditherOpts dither.Options, opts BrotherOptions) error {
	if opts.Page > 0 {
		if _, err := dev.Printf("\x0c"); err != nil {
			return err
		}
	}

	gamma := 1.0
	if opts.Resolution == 300 {
		gamma = 1.2
	}
	d, err := dither.Alloc(ditherOpts, gamma)
	if err != nil {
		return err
	}
	s.dith = d
	s.count = 0
	s.buffer = s.buffer[:0]
	return nil
}

// BrotherRWriteLine dithers scanline y and appends its token to the page
// buffer: a raster-row token ('G' + little-endian length for PT-series,
// 'g' + big-endian-ish length byte pair for QL-series) for a non-blank
// line, or a single 'Z' blank-row token otherwise. QL-800 printers don't
// support the blank-row shorthand, so every line is sent as raster data.
func BrotherRWriteLine(dev device.Device, s *BrotherState, y int, line []byte) error {
	if !s.dith.Line(y, line) {
		return nil
	}

	out := s.dith.Output
	nonBlank := s.isQL800
	if !nonBlank {
		if out[0] != 0 {
			nonBlank = true
		} else {
			for _, b := range out[1:] {
				if b != out[0] {
					nonBlank = true
					break
				}
			}
		}
	}

	if nonBlank {
		s.count += 3 + len(out)
		if s.isPTSeries {
			s.buffer = append(s.buffer, 'G', byte(len(out)), byte(len(out)>>8))
		} else {
			s.buffer = append(s.buffer, 'g', 0, byte(len(out)))
		}
		s.buffer = append(s.buffer, out...)
	} else {
		s.count++
		s.buffer = append(s.buffer, 'Z')
	}

	return nil
}

// BrotherREndPage flushes the last scanline, sends the print-information
// header naming the page's total raster height, the accumulated raster
// buffer, and the eject/cut command.
func BrotherREndPage(dev device.Device, s *BrotherState, opts BrotherOptions) error {
	if err := BrotherRWriteLine(dev, s, opts.CupsHeight, nil); err != nil {
		return err
	}

	info := make([]byte, 13)
	info[0] = 0x1b
	info[1] = 'i'
	info[2] = 'z'
	if brotherIsContinuous(opts.MediaType) {
		info[3] = 0x04
	} else {
		info[3] = 0x0c
	}
	info[4] = 0
	info[5] = byte(opts.MediaSizeWidthHundredthsMM / 100)
	info[6] = byte(opts.MediaSizeLengthHundredthsMM / 100)
	info[7] = byte(opts.CupsHeight)
	info[8] = byte(opts.CupsHeight >> 8)
	info[9] = byte(opts.CupsHeight >> 16)
	info[10] = byte(opts.CupsHeight >> 24)
	if opts.Page == 0 {
		info[11] = 0
	} else {
		info[11] = 1
	}
	info[12] = 0

	if _, err := dev.Write(info); err != nil {
		return err
	}
	if len(s.buffer) > 0 {
		if _, err := dev.Write(s.buffer); err != nil {
			return err
		}
	}

	var cut byte
	if brotherIsContinuous(opts.MediaType) {
		cut = 64
	}
	if _, err := dev.Printf("\x1biM%c", cut); err != nil {
		return err
	}
	return dev.Flush()
}

// BrotherREndJob ejects the last page and releases driver-private state.
func BrotherREndJob(dev device.Device, s *BrotherState) error {
	_, err := dev.Printf("\x1a")
	s.dith = nil
	s.buffer = nil
	return err
}

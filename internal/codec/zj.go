package codec

import "lprintd/internal/device"

// zjHeaderSize is the length of the GS v 0 raster-image command header
// Zijiang thermal printers expect ahead of the bitmap payload.
const zjHeaderSize = 8

// Status bits returned by the four DLE EOT <n> queries.
const (
	ZJPrinterOffline = 0x08

	ZJOfflineCover = 0x04
	ZJOfflinePaper = 0x20
	ZJOfflineError = 0x40

	ZJErrorCutter        = 0x08
	ZJErrorUnrecoverable = 0x20
	ZJErrorRecoverable   = 0x40

	ZJFeedNearEnd  = 0x0c
	ZJFeedPresence = 0x60
)

// ZJStatus is the decoded form of the four single-byte status queries
// Zijiang thermal printers answer over DLE EOT <n>.
type ZJStatus struct {
	Printer byte // DLE EOT 1: overall online/offline
	Offline byte // DLE EOT 2: why, if offline
	Error   byte // DLE EOT 3: cutter/mechanism faults
	Feed    byte // DLE EOT 4: paper-near-end / presence sensor
}

// ZJGetStatus issues the four DLE EOT <n> status queries in sequence,
// each answered with a single status byte.
func ZJGetStatus(dev device.Device) (ZJStatus, error) {
	var s ZJStatus
	for i, dst := range []*byte{&s.Printer, &s.Offline, &s.Error, &s.Feed} {
		if _, err := dev.Printf("\x10\x04%c", byte(i+1)); err != nil {
			return ZJStatus{}, err
		}
		buf := make([]byte, 1)
		if _, err := dev.Read(buf); err != nil {
			return ZJStatus{}, err
		}
		*dst = buf[0]
	}
	return s, nil
}

// ZJState is the per-job driver-private state: the accumulated feed-line
// count and the in-progress raster-image buffer. Unlike the dither-driven
// codecs, ZJ's rwriteline receives lines that are already packed 1-bit
// pixels, so there is no dither engine here.
type ZJState struct {
	feed, lines  int
	buffer       []byte
	bytesPerLine int
}

// ZJRStartJob resets the printer.
func ZJRStartJob(dev device.Device) (*ZJState, error) {
	_, err := dev.Printf("\x1b@")
	return &ZJState{}, err
}

// ZJRStartPage sizes and headers a fresh raster-image buffer sized for the
// whole label (media length in 0.125mm units times bytes per line).
func ZJRStartPage(s *ZJState, mediaSizeLengthHundredthsMM, cupsBytesPerLine int) {
	lines := int(float64(mediaSizeLengthHundredthsMM)/12.5 + 0.5)

	s.feed = 0
	s.lines = 0
	s.bytesPerLine = cupsBytesPerLine
	s.buffer = make([]byte, zjHeaderSize+lines*cupsBytesPerLine)
	s.buffer[0] = 0x1d
	s.buffer[1] = 0x76
	s.buffer[2] = 0x30
	s.buffer[3] = 0x00
	s.buffer[4] = byte(cupsBytesPerLine)
	s.buffer[5] = byte(cupsBytesPerLine >> 8)
}

// zjFlushFeed writes any accumulated blank-line feed as ESC J commands,
// splitting runs over 255 dots since the command takes a single byte
// count.
func zjFlushFeed(dev device.Device, s *ZJState) error {
	for s.feed > 255 {
		if _, err := dev.Write([]byte{0x1b, 'J', 255}); err != nil {
			return err
		}
		s.feed -= 255
	}
	if _, err := dev.Write([]byte{0x1b, 'J', byte(s.feed)}); err != nil {
		return err
	}
	s.feed = 0
	return nil
}

// zjFlushLines writes the accumulated raster buffer, stamping the final
// line count into the header, then resets it so a new run can start.
func zjFlushLines(dev device.Device, s *ZJState) error {
	s.buffer[6] = byte(s.lines)
	s.buffer[7] = byte(s.lines >> 8)
	_, err := dev.Write(s.buffer[:zjHeaderSize+s.lines*s.bytesPerLine])
	s.lines = 0
	return err
}

// ZJRWriteLine appends a non-blank packed scanline to the page's raster
// buffer (flushing any pending feed first) or, for a blank line, flushes
// any buffered raster data and accumulates the feed instead.
func ZJRWriteLine(dev device.Device, s *ZJState, line []byte) error {
	if line == nil {
		// Flush-only call at y == cupsHeight: nothing lags behind here.
		return nil
	}
	blank := line[0] == 0
	if blank {
		for _, b := range line[1:] {
			if b != 0 {
				blank = false
				break
			}
		}
	}

	if !blank {
		if s.feed > 0 {
			if err := zjFlushFeed(dev, s); err != nil {
				return err
			}
		}
		if needed := zjHeaderSize + (s.lines+1)*s.bytesPerLine; needed > len(s.buffer) {
			grown := make([]byte, needed)
			copy(grown, s.buffer)
			s.buffer = grown
		}
		copy(s.buffer[zjHeaderSize+s.lines*s.bytesPerLine:], line)
		s.lines++
		return nil
	}

	if s.lines > 0 {
		if err := zjFlushLines(dev, s); err != nil {
			return err
		}
	}
	s.feed++
	return nil
}

// ZJREndPage flushes any buffered raster data and any pending feed.
func ZJREndPage(dev device.Device, s *ZJState) error {
	if s.lines > 0 {
		if err := zjFlushLines(dev, s); err != nil {
			return err
		}
	}
	if s.feed > 0 {
		if err := zjFlushFeed(dev, s); err != nil {
			return err
		}
	}
	s.buffer = nil
	return nil
}

// ZJREndJob writes the configured tear offset (in 0.125mm units) and an
// optional cut command, then resets the printer.
func ZJREndJob(dev device.Device, tearOffsetConfiguredHundredthsMM int, trim bool) error {
	if tearOffsetConfiguredHundredthsMM != 0 {
		feed := byte(int(float64(tearOffsetConfiguredHundredthsMM)/12.5 + 0.5))
		if _, err := dev.Printf("\x1bJ%c", feed); err != nil {
			return err
		}
	}
	if trim {
		if _, err := dev.Printf("\x1dV\x01"); err != nil {
			return err
		}
	}
	_, err := dev.Printf("\x1b@")
	return err
}

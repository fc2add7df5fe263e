// Package raster parses PWG-raster/URF page streams: a 4-byte sync word
// followed by one fixed-size page header per page, then cupsBytesPerLine
// bytes of packed scanline data repeated cupsHeight times. Field layout
// and sizing follow the CUPS raster v2 page header lprint-common.c reads
// through pappl_pr_options_t's embedded header (options->header.cupsWidth,
// .cupsBytesPerLine, .HWResolution, .cupsInteger[...], etc.)
package raster

import (
	"encoding/binary"
	"io"

	"lprintd/internal/lperr"
)

const (
	syncPWG = "RaS2"
	// headerSize is the fixed size of one CUPS/PWG raster v2 page header.
	headerSize = 1796

	// Imageable-box slots within cupsInteger, matching the left/top/
	// right/bottom bounding-box fields lprintDitherAlloc reads to
	// establish the dither engine's imageable window.
	idxImageBoxLeft   = 0
	idxImageBoxTop    = 1
	idxImageBoxRight  = 2
	idxImageBoxBottom = 3
)

// Header is the subset of the CUPS/PWG raster page header the codec and
// dither-engine wiring actually consume.
type Header struct {
	MediaType        string
	HWResolution     [2]uint32
	NumCopies        uint32
	Orientation      uint32
	Duplex           uint32
	Tumble           uint32
	CupsWidth        uint32
	CupsHeight       uint32
	CupsBitsPerColor uint32
	CupsBitsPerPixel uint32
	CupsBytesPerLine uint32
	CupsColorOrder   uint32
	CupsColorSpace   uint32
	CupsCompression  uint32
	CupsInteger      [16]uint32
}

// ImageBox returns the left/top/right/bottom imageable bounding box in
// pixels, as lprintDitherAlloc reads it from cupsInteger.
func (h *Header) ImageBox() (left, top, right, bottom int) {
	return int(h.CupsInteger[idxImageBoxLeft]), int(h.CupsInteger[idxImageBoxTop]),
		int(h.CupsInteger[idxImageBoxRight]), int(h.CupsInteger[idxImageBoxBottom])
}

// CUPS colorspace identifiers the dither engine's polarity convention
// depends on (mirrors lprint-common.c's CUPS_CSPACE_* switch).
const (
	CupsColorSpaceW  = 0 // luminance-black, 0=black
	CupsColorSpaceK  = 2 // black, 0=white (device colorant order)
	CupsColorSpaceSW = 18
	CupsColorSpaceRGB = 19
)

// WhiteIs255 reports whether colorSpace encodes 255 as paper-white, the
// convention lprint-common.c's dither allocator branches on.
func WhiteIs255(colorSpace uint32) bool {
	switch colorSpace {
	case CupsColorSpaceW, CupsColorSpaceSW, CupsColorSpaceRGB:
		return true
	default:
		return false
	}
}

// Reader streams a PWG-raster/URF document: ReadHeader yields the next
// page header (io.EOF when the document is exhausted), and ReadLine
// yields cupsBytesPerLine bytes of scanline data.
type Reader struct {
	r            io.Reader
	syncRead     bool
	current      *Header
}

// NewReader wraps r as a PWG-raster/URF page stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rd *Reader) ensureSync() error {
	if rd.syncRead {
		return nil
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		return lperr.Wrap(lperr.FormatMalformed, "reading raster sync word", err)
	}
	rd.syncRead = true
	return nil
}

// ReadHeader reads the next page header, or io.EOF if the stream is
// exhausted after a complete page boundary.
func (rd *Reader) ReadHeader() (*Header, error) {
	if err := rd.ensureSync(); err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(rd.r, buf)
	if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, lperr.Wrap(lperr.FormatMalformed, "reading raster page header", err)
	}

	h := &Header{}
	// Field offsets follow the real CUPS raster v2 page header layout:
	// four 64-byte string fields (MediaClass/MediaColor/MediaType/
	// OutputType) precede the big-endian unsigned-integer block.
	h.MediaType = cString(buf[64:128])

	ints := buf[256:]
	u := func(off int) uint32 { return binary.BigEndian.Uint32(ints[off:]) }

	h.HWResolution[0] = u(6 * 4)
	h.HWResolution[1] = u(7 * 4)
	h.NumCopies = u(18 * 4)
	h.Orientation = u(19 * 4)
	h.Duplex = u(8 * 4)
	h.Tumble = u(29 * 4)
	h.CupsWidth = u(30 * 4)
	h.CupsHeight = u(31 * 4)
	h.CupsBitsPerColor = u(33 * 4)
	h.CupsBitsPerPixel = u(34 * 4)
	h.CupsBytesPerLine = u(35 * 4)
	h.CupsColorOrder = u(36 * 4)
	h.CupsColorSpace = u(37 * 4)
	h.CupsCompression = u(38 * 4)
	for i := range h.CupsInteger {
		h.CupsInteger[i] = u((42 + i) * 4)
	}

	if h.CupsWidth == 0 || h.CupsHeight == 0 || h.CupsBytesPerLine == 0 {
		return nil, lperr.New(lperr.FormatMalformed, "raster page header has zero dimensions")
	}

	rd.current = h
	return h, nil
}

// ReadLine reads one scanline (cupsBytesPerLine bytes) of the current
// page's raster data.
func (rd *Reader) ReadLine(buf []byte) error {
	_, err := io.ReadFull(rd.r, buf)
	if err != nil {
		return lperr.Wrap(lperr.FormatMalformed, "reading raster scanline", err)
	}
	return nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

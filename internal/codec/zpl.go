package codec

import (
	"strconv"
	"strings"

	"lprintd/internal/device"
	"lprintd/internal/dither"
)

// ZPLLabelMode mirrors the IPP label-mode keywords a ZPL printer can be
// configured for; each selects one of the ^MM media-handling commands
// rstartjob writes at the top of the job.
type ZPLLabelMode int

const (
	ZPLModeTearOff ZPLLabelMode = iota
	ZPLModeApplicator
	ZPLModeCutter
	ZPLModeCutterDelayed
	ZPLModeKiosk
	ZPLModePeelOff
	ZPLModePeelOffPrepeel
	ZPLModeRewind
	ZPLModeRFID
)

// ZPLTracking selects the gap/black-mark sensing mode rendpage writes via
// ^MN; it is derived from the media type rather than configured directly.
type ZPLTracking int

const (
	ZPLTrackingContinuous ZPLTracking = iota
	ZPLTrackingWeb
	ZPLTrackingMark
)

// ZPLOptions carries everything the ZPL function vector needs out of the
// job's resolved print options and the printer's driver record.
type ZPLOptions struct {
	Resolution            int // dpi: 203, 300, or 600
	PrintSpeedHundredthsMM int // options.PrintSpeed in PWG hundredths-of-mm/sec
	PrintDarkness         int // 0-100, from the job's print-darkness
	DarknessConfigured    int // driver-level darkness offset
	TearOffsetConfigured  int // hundredths of mm, signed; 0 means unconfigured
	ModeConfigured        ZPLLabelMode
	MediaType             string // IPP media-type keyword, e.g. "labels"
	MediaTopOffset        int    // hundredths of mm
	DriverName            string // checked for a "-tt" (thermal transfer) suffix
	Trim                  bool   // finishings included "trim"
	CupsWidth             int
	CupsHeight            int
}

// ZPLState is the per-job driver-private state the ZPL codec threads
// through its function vector, equivalent to lprint_zpl_t in the reference
// implementation.
type ZPLState struct {
	dith          *dither.State
	outWidth      int
	lastBuffer    []byte
	lastBufferSet bool
	compBuf       []byte
}

// ZPLError is the ~HQES "ERRORS:" bitmask.
type ZPLError uint

const (
	ZPLErrorMediaOut ZPLError = 1 << iota
	ZPLErrorRibbonOut
	ZPLErrorHeadOpen
	ZPLErrorCutterFault
	_
	_
	_
	_
	_
	_
	_
	_
	ZPLErrorPaperJam
	ZPLErrorPresenter
	ZPLErrorPaperFeed
	ZPLErrorClearPPFailed
	ZPLErrorPaused
	ZPLErrorRetractTimeout
	ZPLErrorMarkCalibrate
	ZPLErrorMarkNotFound
)

// ZPLWarning is the ~HQES "WARNINGS:" bitmask.
type ZPLWarning uint

const (
	ZPLWarningCalibrateMedia ZPLWarning = 1 << iota
	ZPLWarningCleanPrinthead
	ZPLWarningReplacePrinthead
	ZPLWarningPaperAlmostOut
)

// ZPLStatus is the decoded form of a ~HQES response.
type ZPLStatus struct {
	Errors   ZPLError
	Warnings ZPLWarning
}

// ZPLGetStatus sends ~HQES and parses its "ERRORS: <n> <hex> <hex>
// WARNINGS: <n> <hex> <hex>" response. Each line carries three
// whitespace-separated fields; only the third (the bitmask itself) is
// kept, matching the reference driver's "%*d%*x%x" scan of the line
// following each label. A label missing from the response, or with fewer
// than three fields after it, yields a zero mask for that half rather
// than an error: the printer may omit a section it has nothing to report
// in.
func ZPLGetStatus(dev device.Device) (ZPLStatus, error) {
	if _, err := dev.Printf("~HQES\n"); err != nil {
		return ZPLStatus{}, err
	}

	buf := make([]byte, 1024)
	n, err := dev.Read(buf)
	if err != nil {
		return ZPLStatus{}, err
	}
	line := string(buf[:n])

	return ZPLStatus{
		Errors:   ZPLError(zplParseHQESField(line, "ERRORS:")),
		Warnings: ZPLWarning(zplParseHQESField(line, "WARNINGS:")),
	}, nil
}

func zplParseHQESField(line, label string) uint32 {
	idx := strings.Index(line, label)
	if idx < 0 {
		return 0
	}
	fields := strings.Fields(line[idx+len(label):])
	if len(fields) < 3 {
		return 0
	}
	v, err := strconv.ParseUint(fields[2], 16, 32)
	if err != nil {
		return 0
	}
	return uint32(v)
}

// zplGammaFor matches the resolution-dependent output gamma the reference
// driver applies before dithering: higher-resolution ZPL heads need less
// correction since their dot pitch already approximates continuous tone.
func zplGammaFor(resolution int) float64 {
	switch {
	case resolution >= 600:
		return 1.44
	case resolution >= 300:
		return 1.2
	default:
		return 1.0
	}
}

// ZPLRStartJob writes the job-level setup commands: label-handling mode,
// tear/peel offset, and darkness.
func ZPLRStartJob(dev device.Device, opts ZPLOptions) error {
	var modeCmd string
	switch opts.ModeConfigured {
	case ZPLModeApplicator:
		modeCmd = "^MMA,Y\n"
	case ZPLModeCutter:
		modeCmd = "^MMC,Y\n"
	case ZPLModeCutterDelayed:
		modeCmd = "^MMD,Y\n"
	case ZPLModeKiosk:
		modeCmd = "^MMK,Y\n"
	case ZPLModePeelOff:
		modeCmd = "^MMP,N\n"
	case ZPLModePeelOffPrepeel:
		modeCmd = "^MMP,Y\n"
	case ZPLModeRewind:
		modeCmd = "^MMR,Y\n"
	case ZPLModeRFID:
		modeCmd = "^MMF,Y\n"
	default:
		modeCmd = "^MMT,Y\n"
	}
	if _, err := dev.Printf("%s", modeCmd); err != nil {
		return err
	}

	if opts.TearOffsetConfigured < 0 {
		if _, err := dev.Printf("~TA%04d\n", opts.TearOffsetConfigured); err != nil {
			return err
		}
	} else if opts.TearOffsetConfigured > 0 {
		if _, err := dev.Printf("~TA%03d\n", opts.TearOffsetConfigured); err != nil {
			return err
		}
	}

	darkness := opts.PrintDarkness + opts.DarknessConfigured
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}
	_, err := dev.Printf("~SD%02d\n", 30*darkness/100)
	return err
}

// ZPLRStartPage allocates the dither state for the page and writes the
// bitmap-download header, whose byte count covers the whole page (in_height
// scanlines times out_width bytes per line) since ZPL downloads one graphic
// object rather than streaming scanlines individually.
func ZPLRStartPage(dev device.Device, opts ZPLOptions, ditherOpts dither.Options, inHeight int) (*ZPLState, error) {
	gamma := zplGammaFor(opts.Resolution)
	d, err := dither.Alloc(ditherOpts, gamma)
	if err != nil {
		return nil, err
	}

	s := &ZPLState{
		dith:       d,
		outWidth:   d.OutWidth(),
		lastBuffer: make([]byte, d.OutWidth()),
		compBuf:    make([]byte, 0, 2*d.OutWidth()+1),
	}

	if ips := opts.PrintSpeedHundredthsMM / 2540; ips > 0 {
		if _, err := dev.Printf("^PR%d,%d,%d\n", ips, ips, ips); err != nil {
			return nil, err
		}
	}

	totalBytes := inHeight * s.outWidth
	if _, err := dev.Printf("~DGR:LPRINT.GRF,%d,%d,\n", totalBytes, s.outWidth); err != nil {
		return nil, err
	}

	return s, nil
}

// zplCompress appends the ZPL hex-RLE encoding of count repeats of ch to
// out, splitting runs of 400 or more into repeated maximal 'z' tokens: 'z'
// for 400, 'g'..'y' for multiples of 20 up to 380, 'G'..'Y' for 1-19, and
// the literal character itself always terminates the run.
func zplCompress(out []byte, ch byte, count int) []byte {
	for count >= 400 {
		out = append(out, 'z')
		count -= 400
	}
	if count >= 20 {
		out = append(out, byte('f'+count/20))
		count %= 20
	}
	if count > 0 {
		out = append(out, byte('F'+count))
	}
	return append(out, ch)
}

// hexDigits is the upper-case hex lookup table rwriteline uses to expand
// each dithered output byte into two ASCII characters before compressing.
const hexDigits = "0123456789ABCDEF"

// ZPLRWriteLine dithers input scanline y and, if it produced new output,
// emits the hex-RLE-compressed line (or a bare ':' if it is byte-identical
// to the previous line already written). It returns false, nil when the
// warm-up window swallowed this call without producing output.
func ZPLRWriteLine(dev device.Device, s *ZPLState, y int, line []byte) (bool, error) {
	if !s.dith.Line(y, line) {
		return false, nil
	}

	out := s.dith.Output
	if s.lastBufferSet && string(out) == string(s.lastBuffer) {
		if _, err := dev.Write([]byte{':'}); err != nil {
			return false, err
		}
		copy(s.lastBuffer, out)
		s.lastBufferSet = true
		return true, nil
	}

	hex := make([]byte, 0, 2*len(out))
	for _, b := range out {
		hex = append(hex, hexDigits[b>>4], hexDigits[b&0x0F])
	}

	comp := s.compBuf[:0]
	i := 0
	for i < len(hex) {
		runEnd := i + 1
		for runEnd < len(hex) && hex[runEnd] == hex[i] {
			runEnd++
		}
		runLen := runEnd - i
		if runEnd == len(hex) {
			// Final run: an all-'0' trailing run gets the trailing-zero
			// special case instead of a normal compress token.
			if hex[i] == '0' {
				n := runLen
				if n%2 != 0 {
					n--
					comp = append(comp, '0')
				}
				if n > 0 {
					comp = append(comp, ',')
				}
			} else {
				comp = zplCompress(comp, hex[i], runLen)
			}
		} else {
			comp = zplCompress(comp, hex[i], runLen)
		}
		i = runEnd
	}
	s.compBuf = comp

	if _, err := dev.Write(comp); err != nil {
		return false, err
	}

	copy(s.lastBuffer, out)
	s.lastBufferSet = true
	return true, nil
}

// ZPLREndPage flushes the last buffered scanline and writes the page-level
// commands: label geometry, gap/mark tracking, thermal-transfer vs. direct
// media type, the graphic placement/print commands, and an optional cut.
func ZPLREndPage(dev device.Device, s *ZPLState, opts ZPLOptions, resolutionY int, tracking ZPLTracking) error {
	if _, err := ZPLRWriteLine(dev, s, opts.CupsHeight, nil); err != nil {
		return err
	}

	topOffset := opts.MediaTopOffset * resolutionY / 2540
	if _, err := dev.Printf("^XA\n^POI\n^PW%d\n^LH0,0\n^LT%d\n", opts.CupsWidth, topOffset); err != nil {
		return err
	}

	effTracking := tracking
	if opts.MediaType != "" && !strings.Contains(opts.MediaType, "labels") {
		effTracking = ZPLTrackingContinuous
	}

	switch effTracking {
	case ZPLTrackingContinuous:
		if _, err := dev.Printf("^LL%d\n^MNN\n", opts.CupsHeight); err != nil {
			return err
		}
	case ZPLTrackingWeb:
		if _, err := dev.Printf("^MNY\n"); err != nil {
			return err
		}
	default:
		if _, err := dev.Printf("^MNM\n"); err != nil {
			return err
		}
	}

	if strings.Contains(opts.DriverName, "-tt") {
		if _, err := dev.Printf("^MTT\n"); err != nil {
			return err
		}
	} else if _, err := dev.Printf("^MTD\n"); err != nil {
		return err
	}

	if _, err := dev.Printf("^PQ1, 0, 0, N\n"); err != nil {
		return err
	}
	if _, err := dev.Printf("^FO0,0^XGR:LPRINT.GRF,1,1^FS\n^XZ\n"); err != nil {
		return err
	}
	if _, err := dev.Printf("^XA\n^IDR:LPRINT.GRF^FS\n^XZ\n"); err != nil {
		return err
	}

	if opts.Trim {
		if _, err := dev.Printf("^CN1\n"); err != nil {
			return err
		}
	}

	return nil
}

// ZPLREndJob releases the job's dither state; there is no end-of-job device
// I/O for ZPL.
func ZPLREndJob(s *ZPLState) {
	s.dith = nil
	s.lastBuffer = nil
	s.compBuf = nil
}

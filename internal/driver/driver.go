// Package driver binds a vendor family's codec function vector to an
// immutable per-printer configuration record, so the job pipeline and
// printer runtime can drive any supported printer through one uniform
// interface.
package driver

import (
	"io"

	"lprintd/internal/device"
	"lprintd/internal/dither"
)

// Family identifies the vendor protocol a driver record speaks.
type Family int

const (
	FamilyDYMO Family = iota
	FamilyZPL
	FamilyEPL
	FamilyTSPL
	FamilyBrother
	FamilySII
	FamilyCPCL
	FamilyZJ
	FamilyPWG
)

// LabelMode is a bitmask of the media-handling keywords a printer can be
// configured for (tear-off, cutter, peel-off, ...). Most vendor families
// only ever configure TearOff; ZPL and EPL expose the full set.
type LabelMode uint

const (
	LabelModeTearOff LabelMode = 1 << iota
	LabelModeApplicator
	LabelModeCutter
	LabelModeCutterDelayed
	LabelModeKiosk
	LabelModePeelOff
	LabelModePeelOffPrepeel
	LabelModeRewind
	LabelModeRFID
)

// TrackingMode is a bitmask of the media-sensing keywords a printer
// supports (continuous, web/gap, black-mark).
type TrackingMode uint

const (
	TrackingContinuous TrackingMode = 1 << iota
	TrackingWeb
	TrackingMark
)

// StateReasons mirrors the printer-state-reasons bitmask a codec's status
// hook reports back to the printer runtime.
type StateReasons uint

const (
	ReasonMediaEmpty StateReasons = 1 << iota
	ReasonMediaLow
	ReasonMediaJam
	ReasonCoverOpen
	ReasonMarkerEmpty
	ReasonMarkerLow
	ReasonOffline
	ReasonOther
)

// Options is the job-options struct the job pipeline assembles (see
// internal/job) and passes through to whichever codec the driver record
// selects. Fields a given vendor ignores are simply left unused.
type Options struct {
	Copies                      int
	MediaSizeName               string
	MediaSizeWidthHundredthsMM  int
	MediaSizeLengthHundredthsMM int
	MediaTopOffsetHundredthsMM  int
	MediaType                   string
	MediaSource                 string
	Tracking                    TrackingMode
	Mode                        LabelMode // single selected mode bit for this job
	Orientation                 int       // degrees: 0, 90, 180, 270
	PrintDarkness               int
	// DarknessConfigured is added to PrintDarkness by the codecs. The job
	// pipeline already folds the record's configured darkness into
	// PrintDarkness and leaves this field zero.
	DarknessConfigured          int
	PrintSpeedHundredthsMM      int
	HighQuality                 bool
	Trim                        bool
	CupsWidth                   int
	CupsHeight                  int
	XResolution                 int
	YResolution                 int
	DriverName                  string
	Dither                      dither.Options
}

// Scratch is the vendor codec's per-job driver-private state; its
// lifetime is exclusively owned by the codec for the duration of the job
// and is released by REndJob.
type Scratch = interface{}

// Codec is the per-family function vector every driver record exposes.
// rwriteline is called with scanlines in increasing y, and once more at
// y == cupsHeight as a flush-only call. Brother buffers the whole page and
// emits it on REndPage; ZPL writes each compressed line as it arrives;
// Zijiang buffers each run of non-blank lines and writes it out when a
// blank line or REndPage ends the run.
type Codec interface {
	// Format is the MIME type this family accepts for raw passthrough
	// (vendor-raw jobs skip classification and stream straight through).
	Format() string
	RStartJob(dev device.Device, opts Options) (Scratch, error)
	// RStartPage returns the scratch to use for the page that follows;
	// some families (re)allocate their dither engine here rather than in
	// RStartJob, so the returned value may differ from the one passed in.
	RStartPage(dev device.Device, scratch Scratch, opts Options) (Scratch, error)
	RWriteLine(dev device.Device, scratch Scratch, y int, line []byte) error
	REndPage(dev device.Device, scratch Scratch, opts Options) error
	REndJob(dev device.Device, scratch Scratch, opts Options) error
	// Status polls the device directly; the printer runtime only calls
	// this when the device is idle or between pages, never interleaved
	// with an in-flight job's write stream.
	Status(dev device.Device, opts Options) (StateReasons, error)
	// PrintFile streams a vendor-raw document unchanged, bypassing the
	// dither/raster pipeline entirely.
	PrintFile(dev device.Device, r io.Reader) error
}

// Record is the immutable per (driver-name, printer) binding. Its
// function vector is total for any job whose input format matches
// Format; mismatched raw formats abort the job at classification time.
type Record struct {
	Name                  string
	Family                Family
	Format                string
	XResolutions          []int
	YResolutions          []int
	LeftRight             int // unprintable margin, 1/2540 inch
	BottomTop             int // unprintable margin, 1/2540 inch
	MediaSizes            []string
	ModeSupported         LabelMode
	ModeConfigured        LabelMode
	TrackingSupported     TrackingMode
	DarknessConfigured    int
	TearOffsetConfigured  int // hundredths of mm, signed
	SpeedSupported        [2]int
	SupportsTrim          bool // "-cutter" driver-name suffix: finishings includes trim
	Codec                 Codec
}

func passthroughPrintFile(dev device.Device, r io.Reader) error {
	buf := make([]byte, 65536)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := dev.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

package job

import (
	"image"
	"image/color"
	_ "image/png"
	"io"
	"math"
	"os"

	"lprintd/internal/dither"
	"lprintd/internal/driver"
	"lprintd/internal/device"
	"lprintd/internal/lperr"
	"lprintd/internal/raster"
)

// hundredthsMMPerInch converts a physical dimension in hundredths of a
// millimetre to dots at a given resolution: dots = mm100 * dpi / 2540.
const hundredthsMMPerInch = 2540

// Options is the resolved job-options struct the pipeline assembles from
// per-job IPP attributes, falling back to printer xxx-default attributes
// and finally driver defaults.
type Options struct {
	Copies                      int
	MediaSizeName               string
	MediaSizeWidthHundredthsMM  int
	MediaSizeLengthHundredthsMM int
	MediaSource                 string
	MediaType                   string
	MediaTopOffsetHundredthsMM  int
	Tracking                    driver.TrackingMode
	OrientationRequested        int    // degrees
	PrintColorMode              string // "bi-level" selects clustered dither
	PrintContentOptimize        string
	PrintDarkness               int // -100..+100
	PrintQuality                string
	PrintSpeedHundredthsMM      int
	Resolution                  [2]int
	Mode                        driver.LabelMode
	Trim                        bool
	HighQuality                 bool
}

// Default returns the job-options defaults a newly spooled job falls
// back to when neither the job nor its printer's xxx-default attributes
// set them.
func Default() Options {
	return Options{
		Copies:                      1,
		MediaSizeName:               "oe_4x6-label_4x6in",
		MediaSizeWidthHundredthsMM:  10160, // 4in
		MediaSizeLengthHundredthsMM: 15240, // 6in
		OrientationRequested:        0,
		PrintColorMode:              "bi-level",
		PrintContentOptimize:        "auto",
		PrintQuality:                "normal",
		Mode:                        driver.LabelModeTearOff,
		Tracking:                    driver.TrackingContinuous,
	}
}

// effectiveResolution picks the dots-per-inch pair a job renders at:
// opts.Resolution verbatim when set (printer-resolution override), else the
// driver record's configured resolution list, preferring the highest
// supported value when the job asked for high quality.
func effectiveResolution(rec driver.Record, opts Options) (int, int) {
	if opts.Resolution[0] != 0 && opts.Resolution[1] != 0 {
		return opts.Resolution[0], opts.Resolution[1]
	}
	xres := rec.XResolutions[0]
	yres := rec.YResolutions[0]
	if opts.HighQuality {
		for _, r := range rec.XResolutions {
			if r > xres {
				xres = r
			}
		}
		for _, r := range rec.YResolutions {
			if r > yres {
				yres = r
			}
		}
	}
	return xres, yres
}

// mediaSizeHundredthsMM returns the job's configured media width and
// length in hundredths of a millimetre, falling back to a 4x6in label when
// the job leaves them unset.
func mediaSizeHundredthsMM(opts Options) (int, int) {
	w, h := opts.MediaSizeWidthHundredthsMM, opts.MediaSizeLengthHundredthsMM
	if w == 0 || h == 0 {
		w, h = 10160, 15240
	}
	return w, h
}

// dotsFromHundredthsMM converts a physical dimension in hundredths of a
// millimetre to dots at the given resolution.
func dotsFromHundredthsMM(mm100, dpi int) int {
	return int(math.Round(float64(mm100) * float64(dpi) / hundredthsMMPerInch))
}

// ProcessJob classifies the job's spooled document and drives it through
// the matching codec. rec is the printer's resolved driver record; dev is
// its already-open device handle.
func ProcessJob(j *Job, rec driver.Record, dev device.Device, opts Options) error {
	if j.Canceled() {
		j.finalize(StateCanceled)
		return nil
	}
	j.startProcessing()

	var err error
	switch j.Format {
	case "image/pwg-raster", "image/urf":
		err = processRaster(j, rec, dev, opts)
	case "image/png":
		err = processPNG(j, rec, dev, opts)
	case rec.Format:
		err = processPassthrough(j, rec, dev)
	default:
		j.finalize(StateAborted)
		return lperr.New(lperr.FormatUnsupported, "no codec for format "+j.Format)
	}

	if j.Canceled() {
		j.finalize(StateCanceled)
		return nil
	}
	if err != nil {
		if lperr.Is(err, lperr.Canceled) {
			j.finalize(StateCanceled)
			return nil
		}
		j.finalize(StateAborted)
		return err
	}
	j.finalize(StateCompleted)
	return nil
}

func driverOptions(rec driver.Record, opts Options, h *raster.Header) driver.Options {
	left, top, right, bottom := h.ImageBox()
	whiteIs255 := raster.WhiteIs255(h.CupsColorSpace)
	matrix := dither.ClusteredDot
	if opts.PrintColorMode != "" && opts.PrintColorMode != "bi-level" {
		matrix = dither.Dispersed
	}

	darkness := rec.DarknessConfigured + opts.PrintDarkness
	if darkness < 0 {
		darkness = 0
	} else if darkness > 100 {
		darkness = 100
	}

	mediaW, mediaH := mediaSizeHundredthsMM(opts)

	return driver.Options{
		Copies:                      opts.Copies,
		MediaSizeName:               opts.MediaSizeName,
		MediaSizeWidthHundredthsMM:  mediaW,
		MediaSizeLengthHundredthsMM: mediaH,
		MediaTopOffsetHundredthsMM:  opts.MediaTopOffsetHundredthsMM,
		MediaType:                   opts.MediaType,
		MediaSource:                 opts.MediaSource,
		Tracking:                    opts.Tracking,
		Mode:                        opts.Mode,
		Orientation:                 opts.OrientationRequested,
		PrintDarkness:               darkness,
		PrintSpeedHundredthsMM:      opts.PrintSpeedHundredthsMM,
		HighQuality:                 opts.HighQuality,
		Trim:                        opts.Trim,
		CupsWidth:                   int(h.CupsWidth),
		CupsHeight:                  int(h.CupsHeight),
		XResolution:                 int(h.HWResolution[0]),
		YResolution:                 int(h.HWResolution[1]),
		DriverName:                  rec.Name,
		Dither: dither.Options{
			Left: left, Top: top, Right: right, Bottom: bottom,
			InWidth:        int(h.CupsWidth),
			InBitsPerPixel: int(h.CupsBitsPerPixel),
			WhiteIs255:     whiteIs255,
			Matrix:         matrix,
		},
	}
}

// processRaster drives the codec page-by-page from a spooled PWG-raster
// or URF document, dispatching each scanline through the dither engine.
func processRaster(j *Job, rec driver.Record, dev device.Device, opts Options) error {
	f, err := os.Open(j.SpoolFilename)
	if err != nil {
		return lperr.Wrap(lperr.FormatMalformed, "opening spooled raster document", err)
	}
	defer f.Close()

	rd := raster.NewReader(f)

	scratch, err := rec.Codec.RStartJob(dev, driver.Options{DriverName: rec.Name})
	if err != nil {
		return err
	}
	defer rec.Codec.REndJob(dev, scratch, driver.Options{})

	page := 0
	for {
		hdr, herr := rd.ReadHeader()
		if herr == io.EOF {
			if page == 0 {
				return lperr.New(lperr.FormatMalformed, "raster document has no pages")
			}
			break
		}
		if herr != nil {
			return herr
		}

		dopts := driverOptions(rec, opts, hdr)
		scratch, err = rec.Codec.RStartPage(dev, scratch, dopts)
		if err != nil {
			return err
		}

		line := make([]byte, hdr.CupsBytesPerLine)
		for y := 0; y < int(hdr.CupsHeight); y++ {
			if j.Canceled() {
				return lperr.New(lperr.Canceled, "job canceled")
			}
			if err := rd.ReadLine(line); err != nil {
				return err
			}
			if err := rec.Codec.RWriteLine(dev, scratch, y, line); err != nil {
				return err
			}
		}
		// Flush-only call at y == cupsHeight, per the dither engine's
		// look-behind requirement.
		if err := rec.Codec.RWriteLine(dev, scratch, int(hdr.CupsHeight), nil); err != nil {
			return err
		}

		if err := rec.Codec.REndPage(dev, scratch, dopts); err != nil {
			return err
		}
		page++
		j.ImpressionsCompleted = page
	}

	return nil
}

// processPNG decodes an 8-bit grayscale raster from the spooled PNG,
// centers it within the imageable area preserving aspect ratio, and
// nearest-neighbour samples it onto the codec's raster pipeline.
func processPNG(j *Job, rec driver.Record, dev device.Device, opts Options) error {
	f, err := os.Open(j.SpoolFilename)
	if err != nil {
		return lperr.Wrap(lperr.FormatMalformed, "opening spooled PNG document", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return lperr.Wrap(lperr.FormatMalformed, "decoding PNG", err)
	}
	srcBounds := img.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()

	xres, yres := effectiveResolution(rec, opts)
	mediaW, mediaH := mediaSizeHundredthsMM(opts)
	dstW := dotsFromHundredthsMM(mediaW, xres)
	dstH := dotsFromHundredthsMM(mediaH, yres)

	scratch, err := rec.Codec.RStartJob(dev, driver.Options{DriverName: rec.Name})
	if err != nil {
		return err
	}
	defer rec.Codec.REndJob(dev, scratch, driver.Options{})

	boxW, boxH := dstW, dstH
	scale := float64(boxW) / float64(srcW)
	if s := float64(boxH) / float64(srcH); s < scale {
		scale = s
	}
	outW := int(float64(srcW) * scale)
	outH := int(float64(srcH) * scale)
	xStart := (dstW - outW) / 2
	yStart := (dstH - outH) / 2

	bytesPerLine := (dstW + 7) / 8
	hdr := &raster.Header{CupsWidth: uint32(dstW), CupsHeight: uint32(dstH), CupsBytesPerLine: uint32(bytesPerLine), CupsBitsPerPixel: 8, HWResolution: [2]uint32{uint32(xres), uint32(yres)}}
	hdr.CupsInteger[0], hdr.CupsInteger[1], hdr.CupsInteger[2], hdr.CupsInteger[3] = 0, 0, uint32(dstW), uint32(dstH)

	dopts := driverOptions(rec, opts, hdr)

	scratch, err = rec.Codec.RStartPage(dev, scratch, dopts)
	if err != nil {
		return err
	}

	line := make([]byte, dstW)
	for y := 0; y < dstH; y++ {
		if j.Canceled() {
			return lperr.New(lperr.Canceled, "job canceled")
		}
		for x := range line {
			line[x] = 255 // background (paper) outside the image box
		}
		if y >= yStart && y < yStart+outH {
			ySrc := (y - yStart) * srcH / outH
			xErr := 0
			xSrc := 0
			for x := xStart; x < xStart+outW && x < dstW; x++ {
				line[x] = grayAt(img, srcBounds.Min.X+xSrc, srcBounds.Min.Y+ySrc)
				xErr += srcW
				for xErr >= outW {
					xErr -= outW
					xSrc++
				}
			}
		}
		if err := rec.Codec.RWriteLine(dev, scratch, y, line); err != nil {
			return err
		}
	}
	if err := rec.Codec.RWriteLine(dev, scratch, dstH, nil); err != nil {
		return err
	}
	if err := rec.Codec.REndPage(dev, scratch, dopts); err != nil {
		return err
	}
	j.ImpressionsCompleted = 1
	return nil
}

func grayAt(img image.Image, x, y int) byte {
	r, g, b, _ := img.At(x, y).RGBA()
	gr := color.GrayModel.Convert(color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xFFFF}).(color.Gray)
	return gr.Y
}

// processPassthrough streams a vendor-raw document unchanged between
// no-op start/end hooks.
func processPassthrough(j *Job, rec driver.Record, dev device.Device) error {
	f, err := os.Open(j.SpoolFilename)
	if err != nil {
		return lperr.Wrap(lperr.FormatMalformed, "opening spooled vendor document", err)
	}
	defer f.Close()

	if err := rec.Codec.PrintFile(dev, f); err != nil {
		return err
	}
	j.ImpressionsCompleted = 1
	return nil
}

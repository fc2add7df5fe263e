package codec

import "io"

// PWGState holds the destination a passthrough job copies its raster
// scanlines to (page headers are not written). The driver binds it to the
// printer's device handle; the catalog exposes it as pwg_passthrough_test,
// and the job-pipeline and printer tests use it.
type PWGState struct {
	out io.Writer
}

// PWGRStartJob binds the passthrough codec to a destination stream.
func PWGRStartJob(out io.Writer) *PWGState {
	return &PWGState{out: out}
}

// PWGRStartPage is a no-op; PWG-raster pages are self-delimiting via
// their own page headers.
func PWGRStartPage(*PWGState) error { return nil }

// PWGRWriteLine copies a raster scanline verbatim.
func PWGRWriteLine(s *PWGState, line []byte) error {
	_, err := s.out.Write(line)
	return err
}

// PWGREndPage is a no-op.
func PWGREndPage(*PWGState) error { return nil }

// PWGREndJob is a no-op.
func PWGREndJob(*PWGState) error { return nil }

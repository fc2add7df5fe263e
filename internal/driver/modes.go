package driver

import "lprintd/internal/codec"

// zplMode translates the generic single-bit LabelMode selection into the
// ZPL codec's own enum.
func zplMode(m LabelMode) codec.ZPLLabelMode {
	switch m {
	case LabelModeApplicator:
		return codec.ZPLModeApplicator
	case LabelModeCutter:
		return codec.ZPLModeCutter
	case LabelModeCutterDelayed:
		return codec.ZPLModeCutterDelayed
	case LabelModeKiosk:
		return codec.ZPLModeKiosk
	case LabelModePeelOff:
		return codec.ZPLModePeelOff
	case LabelModePeelOffPrepeel:
		return codec.ZPLModePeelOffPrepeel
	case LabelModeRewind:
		return codec.ZPLModeRewind
	case LabelModeRFID:
		return codec.ZPLModeRFID
	default:
		return codec.ZPLModeTearOff
	}
}

// zplTracking translates the generic tracking-mode selection into the
// ZPL codec's own enum.
func zplTracking(t TrackingMode) codec.ZPLTracking {
	switch t {
	case TrackingWeb:
		return codec.ZPLTrackingWeb
	case TrackingMark:
		return codec.ZPLTrackingMark
	default:
		return codec.ZPLTrackingContinuous
	}
}

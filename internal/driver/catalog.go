package driver

import "fmt"

// catalogEntry builds the Record for one driver name the config file may
// reference.
var catalogEntry = map[string]func() Record{
	"dymo_lw450":           func() Record { return NewDYMO("dymo_lw450", 300) },
	"dymo_lw550turbo":      func() Record { return NewDYMO("dymo_lw550turbo", 300) },
	"zpl_2inch-203dpi":     func() Record { return NewZPL("zpl_2inch-203dpi", []int{203}) },
	"zpl_4inch-203dpi-dt":  func() Record { return NewZPL("zpl_4inch-203dpi-dt", []int{203}) },
	"zpl_zd420-203dpi":     func() Record { return NewZPL("zpl_zd420-203dpi", []int{203}) },
	"zpl_zd420-300dpi":     func() Record { return NewZPL("zpl_zd420-300dpi", []int{300}) },
	"epl_tlp2844":          func() Record { return NewEPL("epl_tlp2844", 203, false) },
	"epl_tlp2844-cutter":   func() Record { return NewEPL("epl_tlp2844-cutter", 203, true) },
	"tspl_ttp244":          func() Record { return NewTSPL("tspl_ttp244", []int{203}) },
	"tspl_ttp244-300dpi":   func() Record { return NewTSPL("tspl_ttp244-300dpi", []int{300}) },
	"brother_ql800":        func() Record { return NewBrother("brother_ql800", 300) },
	"brother_ql820nwb":     func() Record { return NewBrother("brother_ql820nwb", 300) },
	"sii_slp650":           func() Record { return NewSII("sii_slp650", 203) },
	"cpcl_hprt-hm-a300":    func() Record { return NewCPCL("cpcl_hprt-hm-a300", 203) },
	"zj_58mm":              func() Record { return NewZJ("zj_58mm", 203) },
	"pwg_passthrough_test": func() Record { return NewPWG("pwg_passthrough_test") },
}

// Lookup resolves a configured driver name to its Record, or an error if
// the name is not in the catalog.
func Lookup(name string) (Record, error) {
	build, ok := catalogEntry[name]
	if !ok {
		return Record{}, fmt.Errorf("unknown driver %q", name)
	}
	return build(), nil
}

// Names returns every driver name the catalog recognizes, for `--list-drivers`-
// style diagnostics.
func Names() []string {
	names := make([]string, 0, len(catalogEntry))
	for name := range catalogEntry {
		names = append(names, name)
	}
	return names
}

package usbenum

import (
	"errors"
	"testing"
)

func TestURIFallsBackToUnknown(t *testing.T) {
	d := DeviceInfo{}
	if got, want := d.URI(), "usb://Unknown/Unknown"; got != want {
		t.Fatalf("URI() = %q, want %q", got, want)
	}
}

func TestURIIncludesSerialWhenPresent(t *testing.T) {
	d := DeviceInfo{Make: "Dymo", Model: "LabelWriter 450", Serial: "ABC123"}
	if got, want := d.URI(), "usb://Dymo/LabelWriter 450?serial=ABC123"; got != want {
		t.Fatalf("URI() = %q, want %q", got, want)
	}
}

func TestParseDeviceIDExtractsKnownFields(t *testing.T) {
	make_, model, serial := ParseDeviceID("MFG:Zebra;MDL:ZD420;SERN:99Z1;")
	if make_ != "Zebra" || model != "ZD420" || serial != "99Z1" {
		t.Fatalf("got (%q, %q, %q)", make_, model, serial)
	}
}

func TestParseDeviceIDAcceptsLongFormKeys(t *testing.T) {
	make_, model, serial := ParseDeviceID("MANUFACTURER:Brother;MODEL:QL-820;SERIALNUMBER:XYZ;")
	if make_ != "Brother" || model != "QL-820" || serial != "XYZ" {
		t.Fatalf("got (%q, %q, %q)", make_, model, serial)
	}
}

func TestParseDeviceIDIgnoresUnknownFields(t *testing.T) {
	make_, _, _ := ParseDeviceID("CLS:PRINTER;CMD:ZPL;MFG:Zebra;")
	if make_ != "Zebra" {
		t.Fatalf("expected known field to still parse, got make=%q", make_)
	}
}

func TestSelectInterfacePrefersBidirectional(t *testing.T) {
	ifaces := []Interface{
		{Number: 0, Class: ClassPrinter, SubClass: SubClassPrinter, Protocol: ProtocolUnidir, OutEndpoint: 1},
		{Number: 1, Class: ClassPrinter, SubClass: SubClassPrinter, Protocol: ProtocolBidir, OutEndpoint: 2, InEndpoint: 3},
	}
	got, ok := SelectInterface(ifaces)
	if !ok || got.Number != 1 {
		t.Fatalf("expected bidirectional interface 1, got %+v ok=%v", got, ok)
	}
}

func TestSelectInterfaceRejectsNonPrinterClass(t *testing.T) {
	ifaces := []Interface{
		{Number: 0, Class: 0x08, SubClass: SubClassPrinter, Protocol: ProtocolBidir, OutEndpoint: 1},
	}
	if _, ok := SelectInterface(ifaces); ok {
		t.Fatalf("expected no match for non-printer-class interface")
	}
}

func TestSelectInterfaceRequiresOutEndpoint(t *testing.T) {
	ifaces := []Interface{
		{Number: 0, Class: ClassPrinter, SubClass: SubClassPrinter, Protocol: ProtocolBidir, OutEndpoint: 0},
	}
	if _, ok := SelectInterface(ifaces); ok {
		t.Fatalf("expected no match when bulk OUT endpoint is missing")
	}
}

// mockTransport and mockEnumerator exercise the Enumerator/Transport
// split against a fixed in-memory device list, standing in for the
// platform-specific backend in tests.
type mockTransport struct {
	path string
}

func (m *mockTransport) Read([]byte) (int, error)  { return 0, nil }
func (m *mockTransport) Write(p []byte) (int, error) { return len(p), nil }
func (m *mockTransport) Close() error               { return nil }
func (m *mockTransport) DevicePath() string         { return m.path }

type mockEnumerator struct {
	devices []DeviceInfo
}

func (m *mockEnumerator) Enumerate(cb func(DeviceInfo) bool) error {
	for _, d := range m.devices {
		if cb(d) {
			return nil
		}
	}
	return nil
}

func (m *mockEnumerator) Open(info DeviceInfo) (Transport, error) {
	for _, d := range m.devices {
		if d.DevicePath == info.DevicePath {
			return &mockTransport{path: info.DevicePath}, nil
		}
	}
	return nil, errors.New("device not found")
}

func TestMockEnumeratorFindsMatchingDevice(t *testing.T) {
	enum := &mockEnumerator{devices: []DeviceInfo{
		{DevicePath: "bus1/dev1", Make: "Dymo", Model: "LabelWriter 450"},
		{DevicePath: "bus1/dev2", Make: "Zebra", Model: "ZD420"},
	}}

	var found DeviceInfo
	err := enum.Enumerate(func(d DeviceInfo) bool {
		if d.Make == "Zebra" {
			found = d
			return true
		}
		return false
	})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if found.Model != "ZD420" {
		t.Fatalf("expected to find ZD420, got %+v", found)
	}

	tr, err := enum.Open(found)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if tr.DevicePath() != "bus1/dev2" {
		t.Fatalf("DevicePath() = %q", tr.DevicePath())
	}
}

func TestMockEnumeratorOpenUnknownDeviceFails(t *testing.T) {
	enum := &mockEnumerator{}
	if _, err := enum.Open(DeviceInfo{DevicePath: "nope"}); err == nil {
		t.Fatalf("expected error opening unknown device")
	}
}

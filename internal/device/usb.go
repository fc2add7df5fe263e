package device

import (
	"fmt"
	"net/url"

	"lprintd/internal/lperr"
	"lprintd/internal/usbenum"
)

// DefaultEnumerator is the USB enumerator used by openUSB. Tests replace it
// with a mock; production code leaves it as the platform backend selected
// by usbenum_linux.go / usbenum_other.go.
var DefaultEnumerator usbenum.Enumerator = usbenum.NewLinux()

type usbDevice struct {
	uri string
	t   usbenum.Transport
}

// openUSB enumerates attached USB printer-class devices and opens the one
// whose canonical usb://make/model?serial=sn URI matches uri.
func openUSB(uri string, u *url.URL) (Device, error) {
	wantMake, wantModel, wantSerial, err := ParseUSBURI(uri)
	if err != nil {
		return nil, lperr.Wrap(lperr.TransportUnavailable, "parsing usb uri", err)
	}

	var match *usbenum.DeviceInfo
	scanErr := DefaultEnumerator.Enumerate(func(info usbenum.DeviceInfo) bool {
		if info.Make != wantMake || info.Model != wantModel {
			return false
		}
		if wantSerial != "" && info.Serial != wantSerial {
			return false
		}
		m := info
		match = &m
		return true
	})
	if scanErr != nil {
		return nil, lperr.Wrap(lperr.TransportUnavailable, "enumerating usb devices", scanErr)
	}
	if match == nil {
		return nil, lperr.New(lperr.TransportUnavailable, "no usb printer matched "+uri)
	}

	t, err := DefaultEnumerator.Open(*match)
	if err != nil {
		return nil, lperr.Wrap(lperr.TransportUnavailable, "opening usb transport", err)
	}

	return &usbDevice{uri: uri, t: t}, nil
}

func (d *usbDevice) Read(p []byte) (int, error)  { return d.t.Read(p) }
func (d *usbDevice) Write(p []byte) (int, error) { return d.t.Write(p) }
func (d *usbDevice) Close() error                { return d.t.Close() }
func (d *usbDevice) Flush() error                { return nil }
func (d *usbDevice) URI() string                 { return d.uri }

func (d *usbDevice) Printf(format string, args ...interface{}) (int, error) {
	return d.Write([]byte(fmt.Sprintf(format, args...)))
}

//go:build !linux

package usbenum

import "errors"

type unsupportedEnumerator struct{}

// NewLinux is unavailable on this platform; it returns an enumerator whose
// Enumerate and Open always return an error, which the device package
// reports as TransportUnavailable for a usb:// printer.
func NewLinux() Enumerator { return unsupportedEnumerator{} }

func (unsupportedEnumerator) Enumerate(cb func(DeviceInfo) bool) error {
	return errors.New("usb enumeration is not implemented on this platform")
}

func (unsupportedEnumerator) Open(info DeviceInfo) (Transport, error) {
	return nil, errors.New("usb enumeration is not implemented on this platform")
}

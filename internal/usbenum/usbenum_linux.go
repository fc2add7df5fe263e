//go:build linux

package usbenum

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// linuxEnumerator walks /sys/bus/usb/devices for interface-class printer
// devices and talks to the matched one through its /dev/bus/usb/BBB/DDD
// node via USBDEVFS ioctls, the same node libusb opens on Linux.
type linuxEnumerator struct {
	sysPath string // overridable in tests; defaults to /sys/bus/usb/devices
	devPath string // overridable in tests; defaults to /dev/bus/usb
}

// NewLinux returns the Linux USB enumerator backend.
func NewLinux() Enumerator {
	return &linuxEnumerator{sysPath: "/sys/bus/usb/devices", devPath: "/dev/bus/usb"}
}

func (e *linuxEnumerator) Enumerate(cb func(DeviceInfo) bool) error {
	entries, err := os.ReadDir(e.sysPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", e.sysPath, err)
	}

	for _, entry := range entries {
		devDir := filepath.Join(e.sysPath, entry.Name())
		ifaces := e.readInterfaces(devDir)
		iface, ok := SelectInterface(ifaces)
		if !ok {
			continue
		}

		busnum := readUintFile(filepath.Join(devDir, "busnum"))
		devnum := readUintFile(filepath.Join(devDir, "devnum"))
		vendor := readHexFile(filepath.Join(devDir, "idVendor"))
		product := readHexFile(filepath.Join(devDir, "idProduct"))

		info := DeviceInfo{
			DevicePath: filepath.Join(e.devPath, fmt.Sprintf("%03d", busnum), fmt.Sprintf("%03d", devnum)),
			VendorID:   uint16(vendor),
			ProductID:  uint16(product),
			Interface:  iface,
		}

		if id, err := e.fetchDeviceID(info.DevicePath, iface); err == nil {
			info.DeviceID = id
			info.Make, info.Model, info.Serial = ParseDeviceID(id)
		}
		if info.Serial == "" {
			info.Serial = readStringFile(filepath.Join(devDir, "serial"))
		}

		if cb(info) {
			return nil
		}
	}

	return nil
}

func (e *linuxEnumerator) readInterfaces(devDir string) []Interface {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil
	}

	var ifaces []Interface
	for _, entry := range entries {
		// USB interface directories are named "<bus>-<port>:<config>.<iface>".
		if !strings.Contains(entry.Name(), ":") {
			continue
		}
		base := filepath.Join(devDir, entry.Name())
		class := readHexFile(filepath.Join(base, "bInterfaceClass"))
		subclass := readHexFile(filepath.Join(base, "bInterfaceSubClass"))
		protocol := readHexFile(filepath.Join(base, "bInterfaceProtocol"))
		number := readHexFile(filepath.Join(base, "bInterfaceNumber"))
		altsetting := readHexFile(filepath.Join(base, "bAlternateSetting"))

		ifaces = append(ifaces, Interface{
			Number:      uint8(number),
			AltSetting:  uint8(altsetting),
			Class:       uint8(class),
			SubClass:    uint8(subclass),
			Protocol:    uint8(protocol),
			OutEndpoint: findBulkEndpoint(base, false),
			InEndpoint:  findBulkEndpoint(base, true),
		})
	}
	return ifaces
}

// findBulkEndpoint scans an interface directory's endpoint subdirectories
// for the first bulk endpoint matching the requested direction. Returns 0
// (an address no real endpoint uses, since bit 7 would be set on IN
// endpoints and address 0 is the control endpoint) if none is found.
func findBulkEndpoint(ifaceDir string, in bool) uint8 {
	entries, err := os.ReadDir(ifaceDir)
	if err != nil {
		return 0
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "ep_") {
			continue
		}
		base := filepath.Join(ifaceDir, entry.Name())
		attrs := readHexFile(filepath.Join(base, "bmAttributes"))
		if attrs&0x03 != 0x02 { // 0x02 == bulk transfer type
			continue
		}
		addr := readHexFile(filepath.Join(base, "bEndpointAddress"))
		isIn := addr&0x80 != 0
		if isIn == in {
			return uint8(addr)
		}
	}
	return 0
}

func readStringFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func readUintFile(path string) uint64 {
	v, _ := strconv.ParseUint(readStringFile(path), 10, 32)
	return v
}

func readHexFile(path string) uint64 {
	s := strings.TrimPrefix(readStringFile(path), "0x")
	v, _ := strconv.ParseUint(s, 16, 32)
	return v
}

// usbdevfsCtrlTransfer mirrors struct usbdevfs_ctrltransfer from
// <linux/usbdevice_fs.h>.
type usbdevfsCtrlTransfer struct {
	bRequestType uint8
	bRequest     uint8
	wValue       uint16
	wIndex       uint16
	wLength      uint16
	timeout      uint32
	data         uintptr
}

const (
	usbdevfsIoctlControl = 0xc0185500 // _IOWR('U', 0, struct usbdevfs_ctrltransfer), 24-byte payload on amd64
	classSpecificGetDeviceID = 0
	devIDControlTimeoutMS    = 5000
)

// fetchDeviceID issues the class-specific GET_DEVICE_ID request (USB
// Printer Class spec §4.2) to retrieve the IEEE 1284 device ID string.
func (e *linuxEnumerator) fetchDeviceID(devicePath string, iface Interface) (string, error) {
	f, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 1024)
	xfer := usbdevfsCtrlTransfer{
		bRequestType: 0xA1, // IN | CLASS | INTERFACE
		bRequest:     classSpecificGetDeviceID,
		wValue:       0,
		wIndex:       uint16(iface.Number),
		wLength:      uint16(len(buf)),
		timeout:      devIDControlTimeoutMS,
		data:         uintptr(unsafe.Pointer(&buf[0])),
	}

	n, err := ioctl(f.Fd(), usbdevfsIoctlControl, uintptr(unsafe.Pointer(&xfer)))
	if err != nil {
		return "", err
	}
	if n < 2 {
		return "", fmt.Errorf("device id response too short")
	}
	// The first two bytes are a big-endian length prefix per the class spec.
	return strings.TrimRight(string(buf[2:n]), "\x00"), nil
}

func ioctl(fd uintptr, req uint, arg uintptr) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), arg)
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

type linuxTransport struct {
	path string
	f    *os.File
	in   uint8
	out  uint8
}

func (e *linuxEnumerator) Open(info DeviceInfo) (Transport, error) {
	f, err := os.OpenFile(info.DevicePath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", info.DevicePath, err)
	}

	iface := uint32(info.Interface.Number)
	if _, err := ioctl(f.Fd(), usbdevfsClaimInterface, uintptr(unsafe.Pointer(&iface))); err != nil {
		f.Close()
		return nil, fmt.Errorf("claiming interface %d: %w", info.Interface.Number, err)
	}

	return &linuxTransport{
		path: info.DevicePath,
		f:    f,
		in:   info.Interface.InEndpoint,
		out:  info.Interface.OutEndpoint,
	}, nil
}

const usbdevfsClaimInterface = 0x8004550f // _IOR('U', 15, unsigned int)

func (t *linuxTransport) DevicePath() string { return t.path }

func (t *linuxTransport) Read(p []byte) (int, error) {
	if t.in == 0 {
		return 0, fmt.Errorf("usb transport has no bulk IN endpoint (unidirectional printer)")
	}
	return bulkTransfer(t.f.Fd(), t.in, p)
}

func (t *linuxTransport) Write(p []byte) (int, error) {
	return bulkTransfer(t.f.Fd(), t.out, p)
}

func (t *linuxTransport) Close() error {
	iface := uint32(0)
	ioctl(t.f.Fd(), usbdevfsReleaseInterface, uintptr(unsafe.Pointer(&iface)))
	return t.f.Close()
}

const usbdevfsReleaseInterface = 0x80045510 // _IOR('U', 16, unsigned int)
const usbdevfsIoctlBulk = 0xc0105502        // _IOWR('U', 2, struct usbdevfs_bulktransfer)

type usbdevfsBulkTransfer struct {
	ep      uint32
	length  uint32
	timeout uint32
	data    uintptr
}

// bulkTransfer issues a blocking bulk transfer with no timeout, relying on
// the printer's own flow control.
func bulkTransfer(fd uintptr, ep uint8, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	xfer := usbdevfsBulkTransfer{
		ep:      uint32(ep),
		length:  uint32(len(p)),
		timeout: 0,
		data:    uintptr(unsafe.Pointer(&p[0])),
	}
	return ioctl(fd, usbdevfsIoctlBulk, uintptr(unsafe.Pointer(&xfer)))
}

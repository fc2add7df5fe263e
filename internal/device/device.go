// Package device implements the uniform byte-stream transport over the
// file, socket, and usb device URI schemes. At most one live Device exists
// per printer at any time; the printer runtime enforces that invariant,
// this package only implements the per-scheme I/O discipline.
package device

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"lprintd/internal/lperr"
)

// Device is an open connection to a printer: a read endpoint, a write
// endpoint (often the same descriptor), and scheme-specific teardown.
type Device interface {
	io.ReadWriteCloser
	// Printf formats into the device's write stream.
	Printf(format string, args ...interface{}) (int, error)
	// Flush drains any buffered output. Most transports are unbuffered and
	// treat this as a no-op; it exists so codecs can mark an intentional
	// boundary (end of page/job) without caring which transport is in use.
	Flush() error
	// URI is the canonical URI this device was opened from.
	URI() string
}

const socketConnectTimeout = 30 * time.Second

// Open dispatches on the URI scheme and returns a connected Device, or a
// lperr-kinded TransportUnavailable error. The returned handle is untouched
// (nil) on error — callers never need to close a failed Open.
func Open(uri string) (Device, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, lperr.Wrap(lperr.TransportUnavailable, "parsing device uri "+uri, err)
	}

	switch u.Scheme {
	case "file":
		return openFile(uri, u)
	case "socket":
		return openSocket(uri, u)
	case "usb":
		return openUSB(uri, u)
	default:
		return nil, lperr.New(lperr.TransportUnavailable, "unsupported device scheme "+u.Scheme)
	}
}

// fdDevice wraps a single read-write file descriptor (character device
// file, or a connected TCP socket) with the retry-on-EINTR/EAGAIN and
// drain-until-complete discipline required for file and socket
// transports.
type fdDevice struct {
	uri string
	f   *os.File
	c   net.Conn // set instead of f for socket transport
}

func openFile(uri string, u *url.URL) (Device, error) {
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, lperr.Wrap(lperr.TransportUnavailable, "opening device file "+path, err)
	}
	return &fdDevice{uri: uri, f: f}, nil
}

func openSocket(uri string, u *url.URL) (Device, error) {
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		return nil, lperr.New(lperr.TransportUnavailable, "socket uri missing port: "+uri)
	}
	addr := net.JoinHostPort(host, port)
	conn, err := net.DialTimeout("tcp", addr, socketConnectTimeout)
	if err != nil {
		return nil, lperr.Wrap(lperr.TransportUnavailable, "connecting to "+addr, err)
	}
	return &fdDevice{uri: uri, c: conn}, nil
}

func (d *fdDevice) Read(p []byte) (int, error) {
	return retryingIO(func() (int, error) {
		if d.c != nil {
			return d.c.Read(p)
		}
		return d.f.Read(p)
	})
}

// Write loops until every byte is drained, looping past short writes and
// retrying on transient interruption.
func (d *fdDevice) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := retryingIO(func() (int, error) {
			if d.c != nil {
				return d.c.Write(p[total:])
			}
			return d.f.Write(p[total:])
		})
		total += n
		if err != nil {
			return total, lperr.Wrap(lperr.TransportIO, "writing to device", err)
		}
		if n == 0 {
			return total, lperr.New(lperr.TransportIO, "device write stalled")
		}
	}
	return total, nil
}

// retryingIO retries an interrupted or would-block syscall in place
// rather than surfacing EINTR/EAGAIN to the caller.
func retryingIO(op func() (int, error)) (int, error) {
	for {
		n, err := op()
		if err == nil || !errors.Is(err, syscall.EINTR) && !errors.Is(err, syscall.EAGAIN) {
			return n, err
		}
	}
}

func (d *fdDevice) Printf(format string, args ...interface{}) (int, error) {
	return d.Write([]byte(fmt.Sprintf(format, args...)))
}

func (d *fdDevice) Flush() error { return nil }

func (d *fdDevice) URI() string { return d.uri }

func (d *fdDevice) Close() error {
	if d.c != nil {
		return d.c.Close()
	}
	if d.f != nil {
		return d.f.Close()
	}
	return nil
}

// ParseUSBURI splits a usb://make/model?serial=sn URI into its parts, for
// both the enumerator (building the canonical URI) and openUSB (matching a
// configured printer to an enumerated device).
func ParseUSBURI(uri string) (make_, model, serial string, err error) {
	u, perr := url.Parse(uri)
	if perr != nil {
		return "", "", "", perr
	}
	if u.Scheme != "usb" {
		return "", "", "", fmt.Errorf("not a usb uri: %s", uri)
	}
	make_ = u.Host
	model = strings.Trim(u.Path, "/")
	serial = u.Query().Get("serial")
	return make_, model, serial, nil
}

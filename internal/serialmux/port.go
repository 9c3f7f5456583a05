package serialmux

import "io"

// SerialPorter is the minimal interface needed for a serial port. It lets
// tests feed lines without hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

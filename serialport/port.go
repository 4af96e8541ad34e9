// Package serialport provides the byte-duplex port abstraction the T=0
// engines are built on: echo-verified writes, inter-byte-timeout reads,
// RTS/DTR control and a cooperative read cancellation.
package serialport

import "time"

// Options configures a Port at open time.
type Options struct {
	Baud             int
	ReadTimeout      time.Duration
	InterByteTimeout time.Duration
}

// DefaultOptions mirrors the ATR-default link parameters: 9600 baud,
// 1s read timeout, 100ms inter-byte timeout (tightened after PPS).
func DefaultOptions() Options {
	return Options{
		Baud:             9600,
		ReadTimeout:      time.Second,
		InterByteTimeout: 100 * time.Millisecond,
	}
}

// Port is the byte-duplex transport the reader and virtual-card T=0
// engines are built on. Implementations must verify, on every Write, that
// the same bytes are echoed back by the tied TX/RX lines before returning.
type Port interface {
	// Write sends data and reads back len(data) bytes of echo, failing
	// with a *link.ProtocolError on mismatch.
	Write(data []byte) error

	// ReadByte reads a single byte, blocking up to the port's read timeout.
	// ok is false on timeout (no error).
	ReadByte() (b byte, ok bool, err error)

	// ReadBytes reads up to n bytes, each subject to the inter-byte
	// timeout once the first byte of the call has arrived.
	ReadBytes(n int) ([]byte, error)

	// ResetInput discards any buffered input.
	ResetInput() error

	// SetRTS and SetDTR drive the reset lines.
	SetRTS(level bool) error
	SetDTR(level bool) error

	// SetBaud reconfigures the line speed, e.g. after a PPS exchange.
	SetBaud(baud int) error

	// SetInterByteTimeout adjusts the per-byte read timeout, e.g. tightened
	// to 10ms after PPS.
	SetInterByteTimeout(d time.Duration)

	// CancelRead causes a pending or future ReadByte/ReadBytes call to
	// return promptly with ok=false.
	CancelRead()

	Close() error
}

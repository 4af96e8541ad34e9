//go:build linux

package serialport

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	gs "github.com/daedaluz/goserial"

	"cardlink/link"
)

// cancelPoll is the polling granularity CancelRead uses to interrupt a
// blocking ReadTimeout call; goserial has no async cancellation primitive,
// so cancellation is cooperative.
const cancelPoll = 50 * time.Millisecond

// linuxPort wraps github.com/daedaluz/goserial's termios2-based Port to
// implement the Port interface over a real character device.
type linuxPort struct {
	raw *gs.Port

	mu               sync.Mutex // serializes writes against the WXT heartbeat
	interByteTimeout time.Duration
	cancelled        atomic.Bool
}

// Open opens a character device for 8E2 T=0 framing at opts.Baud.
func Open(device string, opts Options) (Port, error) {
	raw, err := gs.Open(device, gs.NewOptions().SetReadTimeout(opts.ReadTimeout))
	if err != nil {
		return nil, &link.ReaderError{Msg: "open " + device, Err: err}
	}
	p := &linuxPort{raw: raw, interByteTimeout: opts.InterByteTimeout}
	if err := p.configure(opts.Baud); err != nil {
		raw.Close()
		return nil, err
	}
	return p, nil
}

func (p *linuxPort) configure(baud int) error {
	attrs, err := p.raw.GetAttr2()
	if err != nil {
		return &link.ReaderError{Msg: "GetAttr2", Err: err}
	}
	attrs.MakeRaw()
	attrs.Cflag |= gs.CS8 | gs.CSTOPB | gs.PARENB | gs.CREAD | gs.CLOCAL
	attrs.Cflag &^= gs.CSIZE &^ gs.CS8
	attrs.Cflag &^= gs.PARODD // even parity
	attrs.SetCustomIOSpeed(uint32(baud), uint32(baud))
	if err := p.raw.SetAttr2(gs.TCSANOW, attrs); err != nil {
		return &link.ReaderError{Msg: "SetAttr2", Err: err}
	}
	return nil
}

func (p *linuxPort) Write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.raw.Write(data); err != nil {
		return &link.ReaderError{Msg: "write", Err: err}
	}
	echo, err := p.readN(len(data), p.effectiveReadTimeout())
	if err != nil {
		return err
	}
	if !bytes.Equal(echo, data) {
		return &link.ProtocolError{Msg: "TX echo mismatch"}
	}
	return nil
}

func (p *linuxPort) effectiveReadTimeout() time.Duration {
	if p.interByteTimeout > 0 {
		return p.interByteTimeout
	}
	return time.Second
}

func (p *linuxPort) ReadByte() (byte, bool, error) {
	buf, err := p.readN(1, p.effectiveReadTimeout())
	if err != nil {
		return 0, false, err
	}
	if len(buf) == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}

func (p *linuxPort) ReadBytes(n int) ([]byte, error) {
	return p.readN(n, p.effectiveReadTimeout())
}

// readN reads exactly n bytes, one at a time, each bounded by timeout and
// sliced into cancelPoll increments so CancelRead can interrupt a read in
// progress. Returns fewer than n bytes (no error) on timeout or cancel.
func (p *linuxPort) readN(n int, timeout time.Duration) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		if p.cancelled.Load() {
			break
		}
		b := make([]byte, 1)
		remaining := timeout
		var got int
		for remaining > 0 {
			step := cancelPoll
			if step > remaining {
				step = remaining
			}
			c, err := p.raw.ReadTimeout(b, step)
			if err != nil {
				return out, &link.ReaderError{Msg: "read", Err: err}
			}
			if c > 0 {
				got = c
				break
			}
			remaining -= step
			if p.cancelled.Load() {
				return out, nil
			}
		}
		if got == 0 {
			break
		}
		out = append(out, b[0])
	}
	return out, nil
}

func (p *linuxPort) ResetInput() error {
	if err := p.raw.Flush(gs.TCIFLUSH); err != nil {
		return &link.ReaderError{Msg: "flush input", Err: err}
	}
	return nil
}

func (p *linuxPort) SetRTS(level bool) error {
	return p.setModemLine(gs.TIOCM_RTS, level)
}

func (p *linuxPort) SetDTR(level bool) error {
	return p.setModemLine(gs.TIOCM_DTR, level)
}

func (p *linuxPort) setModemLine(line gs.ModemLine, level bool) error {
	var err error
	if level {
		err = p.raw.EnableModemLines(line)
	} else {
		err = p.raw.DisableModemLines(line)
	}
	if err != nil {
		return &link.ReaderError{Msg: "set modem line", Err: err}
	}
	return nil
}

func (p *linuxPort) SetBaud(baud int) error {
	attrs, err := p.raw.GetAttr2()
	if err != nil {
		return &link.ReaderError{Msg: "GetAttr2", Err: err}
	}
	attrs.SetCustomIOSpeed(uint32(baud), uint32(baud))
	if err := p.raw.SetAttr2(gs.TCSANOW, attrs); err != nil {
		return &link.ReaderError{Msg: "SetAttr2", Err: err}
	}
	return nil
}

func (p *linuxPort) SetInterByteTimeout(d time.Duration) {
	p.interByteTimeout = d
}

func (p *linuxPort) CancelRead() {
	p.cancelled.Store(true)
}

func (p *linuxPort) Close() error {
	return p.raw.Close()
}

package vcard

import (
	"sync"
	"time"
)

// fakePort is a deterministic in-memory serialport.Port for dispatch-loop
// tests: writes are recorded, reads are served from a queue the test
// preloads with the terminal's side of the exchange.
type fakePort struct {
	mu     sync.Mutex
	writes [][]byte
	rx     []byte
}

func (f *fakePort) Write(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakePort) ReadByte() (byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.rx) == 0 {
		return 0, false, nil
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, true, nil
}

func (f *fakePort) ReadBytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n > len(f.rx) {
		n = len(f.rx)
	}
	out := f.rx[:n]
	f.rx = f.rx[n:]
	return append([]byte(nil), out...), nil
}

func (f *fakePort) ResetInput() error                  { return nil }
func (f *fakePort) SetRTS(level bool) error             { return nil }
func (f *fakePort) SetDTR(level bool) error             { return nil }
func (f *fakePort) SetBaud(baud int) error              { return nil }
func (f *fakePort) SetInterByteTimeout(d time.Duration) {}
func (f *fakePort) CancelRead()                         {}
func (f *fakePort) Close() error                        { return nil }

func (f *fakePort) pushRX(b ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rx = append(f.rx, b...)
}

func (f *fakePort) allWrites() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []byte
	for _, w := range f.writes {
		out = append(out, w...)
	}
	return out
}

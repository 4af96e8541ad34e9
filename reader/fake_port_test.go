package reader

import (
	"time"
)

// fakePort is an in-memory serialport.Port double: Write is assumed to
// already have verified its echo (as the real port does), so it just
// records what was sent; reads are served from a pre-loaded queue
// representing the card's actual response bytes.
type fakePort struct {
	writes  [][]byte
	rx      []byte
	rtsLog  []bool
	dtrLog  []bool
	baud    int
	ibt     time.Duration
	failAll bool
}

func (f *fakePort) Write(data []byte) error {
	cp := append([]byte(nil), data...)
	f.writes = append(f.writes, cp)
	return nil
}

func (f *fakePort) ReadByte() (byte, bool, error) {
	if len(f.rx) == 0 {
		return 0, false, nil
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, true, nil
}

func (f *fakePort) ReadBytes(n int) ([]byte, error) {
	if n > len(f.rx) {
		n = len(f.rx)
	}
	out := f.rx[:n]
	f.rx = f.rx[n:]
	return out, nil
}

func (f *fakePort) ResetInput() error                       { return nil }
func (f *fakePort) SetRTS(level bool) error                  { f.rtsLog = append(f.rtsLog, level); return nil }
func (f *fakePort) SetDTR(level bool) error                  { f.dtrLog = append(f.dtrLog, level); return nil }
func (f *fakePort) SetBaud(baud int) error                   { f.baud = baud; return nil }
func (f *fakePort) SetInterByteTimeout(d time.Duration)      { f.ibt = d }
func (f *fakePort) CancelRead()                              {}
func (f *fakePort) Close() error                             { return nil }

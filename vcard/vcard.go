// Package vcard implements the virtual-card role: emulating a UICC/SIM on
// a serial interface by producing an ATR, accepting APDUs under the T=0
// protocol, and dispatching each one to an application-supplied handler
// while keeping the counterpart alive with WXT heartbeats.
package vcard

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"cardlink/classifier"
	"cardlink/link"
	"cardlink/serialport"
)

const (
	wxtByte   = 0x60
	insGetResponse = 0xC0
)

// ATRSlow offers no PPS change (initial baud kept): TA1=0x11 (F=372, D=1).
var ATRSlow = []byte{0x3B, 0x9F, 0x11, 0x80, 0x1F, 0xC6, 0x80, 0x31, 0xE0, 0x73, 0xFE, 0x21, 0x1B, 0x66, 0xD0, 0x02, 0x21, 0xAB, 0x11, 0x18, 0x03, 0x05}

// ATROfferPPS advertises a higher baud rate via TA1=0x96, offering the
// terminal a PPS to raise FI/DI.
var ATROfferPPS = []byte{0x3B, 0x9F, 0x96, 0x80, 0x1F, 0xC6, 0x80, 0x31, 0xE0, 0x73, 0xFE, 0x21, 0x1B, 0x66, 0xD0, 0x02, 0x21, 0xAB, 0x11, 0x18, 0x03, 0x82}

// Handler computes the response APDU for a command APDU (including its
// 5-byte header and any Lc-length command data).
type Handler func(apdu []byte) ([]byte, error)

// WaitForReset blocks until the counterpart asserts the reset line.
type WaitForReset func() error

// Options configures a new VCard.
type Options struct {
	ClockHz      int
	DoPPS        bool
	Profile      classifier.Profile
	Handler      Handler
	WaitForReset WaitForReset
}

// VCard runs the virtual-card dispatch loop.
type VCard struct {
	port    serialport.Port
	params  *link.Params
	profile classifier.Profile
	handler Handler
	waitRst WaitForReset

	writeMu sync.Mutex // serializes response TX against the WXT heartbeat

	alive atomic.Bool
	atr   *link.ATR

	cache struct {
		valid bool
		data  []byte
	}
}

// New constructs a VCard over an already-open port.
func New(port serialport.Port, opts Options) *VCard {
	profile := opts.Profile
	if profile.Name == "" {
		profile = classifier.UICCSIM
	}
	return &VCard{
		port:    port,
		params:  link.NewParams(opts.ClockHz),
		profile: profile,
		handler: opts.Handler,
		waitRst: opts.WaitForReset,
	}
}

// Stop requests the run loop to exit after its current iteration and
// cancels any pending read.
func (v *VCard) Stop() {
	v.alive.Store(false)
	v.port.CancelRead()
}

// Run executes the lifecycle loop: wait for reset, send ATR (+PPS),
// dispatch APDUs, repeat. It returns when Stop is called.
func (v *VCard) Run(doPPS bool) error {
	v.alive.Store(true)
	first := true
	for v.alive.Load() {
		if v.waitRst != nil {
			if err := v.waitRst(); err != nil {
				return err
			}
		}
		if !v.alive.Load() {
			return nil
		}
		if err := v.sendATR(doPPS && first); err != nil {
			log.WithError(err).Error("vcard: ATR/PPS failed")
			continue
		}
		first = false
		if err := v.dispatchLoop(); err != nil {
			log.WithError(err).Error("vcard: dispatch loop exited, restarting")
		}
	}
	return nil
}

func (v *VCard) sendATR(offerPPS bool) error {
	if err := v.port.ResetInput(); err != nil {
		return err
	}
	atrBytes := ATRSlow
	if offerPPS {
		atrBytes = ATROfferPPS
	}
	if err := v.writeLocked(atrBytes); err != nil {
		return err
	}
	atr, err := link.DecodeATR(atrBytes)
	if err != nil {
		return err
	}
	v.atr = atr

	if offerPPS {
		req, err := v.port.ReadBytes(4)
		if err != nil {
			return err
		}
		if len(req) == 4 && req[0] == 0xFF {
			if err := v.writeLocked(req); err != nil {
				return err
			}
			v.params.FI = int(req[2] >> 4)
			v.params.DI = int(req[2] & 0x0F)
		}
	}
	return nil
}

func (v *VCard) writeLocked(data []byte) error {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()
	return v.port.Write(data)
}

// dispatchLoop reads APDUs off the wire and answers them until an error
// terminates the iteration (the caller restarts unless Stop was called).
func (v *VCard) dispatchLoop() error {
	for v.alive.Load() {
		header, cmdData, le, apduCase, err := v.rxAPDU()
		if err != nil {
			return err
		}
		apdu := append(append([]byte(nil), header...), cmdData...)
		resp, err := v.handleWithHeartbeat(apdu)
		if err != nil {
			log.WithError(err).Error("vcard: handler error")
			return err
		}
		if err := v.sendResponse(header[1], resp, le, apduCase); err != nil {
			return err
		}
	}
	return nil
}

// rxAPDU reads the 5-byte header, classifies it, and for case 3/4 reads
// the command data, echoing the INS as the procedure byte first. le is
// the expected total response length including the 2 SW bytes. The
// returned case lets sendResponse apply case-specific framing, such as
// the leading instruction byte a case 2 response carries.
func (v *VCard) rxAPDU() (header, cmdData []byte, le, apduCase int, err error) {
	header, err = v.readN(5)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	h := classifier.Header{CLA: header[0], INS: header[1], P1: header[2], P2: header[3], P3: header[4]}
	result := classifier.Classify(h, v.profile)

	switch result.Case {
	case 1:
		return header, nil, 2, result.Case, nil
	case 2:
		le := int(h.P3)
		if le == 0 {
			le = 256
		}
		return header, nil, le + 2, result.Case, nil
	case 3, 4:
		if h.P3 == 0 {
			return header, nil, 2, result.Case, nil
		}
		if err := v.writeLocked([]byte{h.INS}); err != nil {
			return nil, nil, 0, 0, err
		}
		data, err := v.readN(int(h.P3))
		if err != nil {
			return nil, nil, 0, 0, err
		}
		return header, data, 2, result.Case, nil
	default:
		return header, nil, 2, result.Case, nil
	}
}

func (v *VCard) readN(n int) ([]byte, error) {
	buf, err := v.port.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	if len(buf) != n {
		return nil, &link.ProtocolError{Msg: "short read from terminal"}
	}
	return buf, nil
}

// handleWithHeartbeat runs the handler while a heartbeat goroutine sends
// periodic WXT bytes; heartbeat writes and the eventual response write
// share writeMu so a heartbeat byte never lands inside a response.
func (v *VCard) handleWithHeartbeat(apdu []byte) ([]byte, error) {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.wxtLoop(stop)
	}()
	resp, err := v.handler(apdu)
	close(stop)
	wg.Wait()
	return resp, err
}

func (v *VCard) wxtLoop(stop <-chan struct{}) {
	wt, err := v.params.WaitingTime()
	if err != nil || wt <= 0 {
		wt = 1
	}
	ticker := time.NewTicker(time.Duration(wt/2*float64(time.Second)) + time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := v.writeLocked([]byte{wxtByte}); err != nil {
				log.WithError(err).Warn("vcard: WXT write failed")
			}
		}
	}
}

// sendResponse applies the GET-RESPONSE case-4 fix-up and transmits the
// final response frame. For a case 2 command whose response carries data
// beyond the 2 SW bytes, the card first echoes the instruction byte as a
// T=0 procedure byte before the data, matching the terminal's expectation
// of a single uninterrupted response phase.
func (v *VCard) sendResponse(ins byte, resp []byte, le, apduCase int) error {
	if v.cache.valid && ins == insGetResponse {
		if apduCase == 2 && len(v.cache.data) > 2 {
			if err := v.writeLocked([]byte{ins}); err != nil {
				return err
			}
		}
		return v.writeLocked(v.cache.data)
	}
	v.cache.valid = false

	switch {
	case len(resp) == le:
		if apduCase == 2 && len(resp) > 2 {
			if err := v.writeLocked([]byte{ins}); err != nil {
				return err
			}
		}
		return v.writeLocked(resp)
	case len(resp) < 2:
		log.WithField("len", len(resp)).Error("vcard: handler response shorter than SW")
		return v.writeLocked(resp)
	case len(resp) > le:
		v.cache.valid = true
		v.cache.data = resp
		more := len(resp) - 2
		if more > 0xFF {
			more = 0xFF
		}
		return v.writeLocked([]byte{0x61, byte(more)})
	default: // len(resp) < le, >= 2: wrong Le
		v.cache.valid = true
		v.cache.data = resp
		correct := len(resp) - 2
		return v.writeLocked([]byte{0x6C, byte(correct)})
	}
}

// ATR returns the most recently sent ATR.
func (v *VCard) ATR() *link.ATR { return v.atr }

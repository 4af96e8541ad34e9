// Package reader implements the reader-role ISO/IEC 7816-3 T=0 engine: it
// drives a physical UICC/SIM over a serialport.Port, handling reset, ATR
// collection, PPS negotiation and command/response APDU exchange.
package reader

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	log "github.com/sirupsen/logrus"

	"cardlink/classifier"
	"cardlink/link"
	"cardlink/serialport"
)

var resetPinRe = regexp.MustCompile(`^([+-])(rts|dtr)$`)

// Reader drives a card over a serial port under the T=0 protocol.
type Reader struct {
	port    serialport.Port
	params  *link.Params
	profile classifier.Profile
	atr     *link.ATR

	resetLine  string // "rts" or "dtr"
	resetLevel byte   // asserted level: 0 or 1
}

// Options configures a new Reader.
type Options struct {
	ClockHz      int
	ResetPinSpec string // e.g. "+rts", "-dtr"
	Profile      classifier.Profile
}

// New opens device and returns a Reader using it. The reset pin spec is a
// sign ('+' = asserted level 0, '-' = asserted level 1) followed by "rts"
// or "dtr".
func New(device string, opts Options) (*Reader, error) {
	m := resetPinRe.FindStringSubmatch(opts.ResetPinSpec)
	if m == nil {
		return nil, fmt.Errorf("invalid reset pin spec %q, want e.g. +rts or -dtr", opts.ResetPinSpec)
	}
	level := byte(0)
	if m[1] == "-" {
		level = 1
	}

	portOpts := serialport.DefaultOptions()
	p, err := serialport.Open(device, portOpts)
	if err != nil {
		return nil, err
	}

	return newWithPort(p, opts, m[2], level), nil
}

func newWithPort(p serialport.Port, opts Options, resetLine string, resetLevel byte) *Reader {
	profile := opts.Profile
	if profile.Name == "" {
		profile = classifier.UICCSIM
	}
	return &Reader{
		port:       p,
		params:     link.NewParams(opts.ClockHz),
		profile:    profile,
		resetLine:  resetLine,
		resetLevel: resetLevel,
	}
}

// ATR returns the most recently captured ATR, or nil if none yet.
func (r *Reader) ATR() *link.ATR { return r.atr }

// Close releases the underlying port.
func (r *Reader) Close() error { return r.port.Close() }

func (r *Reader) setResetLine(asserted bool) error {
	level := r.resetLevel
	if !asserted {
		level = 1 - level
	}
	on := level == 1
	if r.resetLine == "rts" {
		return r.port.SetRTS(on)
	}
	return r.port.SetDTR(on)
}

// ResetCard performs a cold reset and captures the ATR. It returns
// *link.NoCardError if no TS byte arrives and *link.ProtocolError if the
// TS byte is not 0x3B (direct convention; 0x3F is rejected as well).
func (r *Reader) ResetCard() error {
	if err := r.setResetLine(true); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	if err := r.port.ResetInput(); err != nil {
		return err
	}
	if err := r.setResetLine(false); err != nil {
		return err
	}

	atrBytes, err := r.readATR()
	if err != nil {
		return err
	}
	atr, err := link.DecodeATR(atrBytes)
	if err != nil {
		return err
	}
	r.atr = atr
	log.WithField("atr", hex.EncodeToString(atrBytes)).Debug("reader: card reset")
	return nil
}

// readATR reads the raw ATR byte stream: TS (tolerating repeated 0x3B
// noise), T0, any TA/TB/TC/TD interface bytes the T0/TD chain announces,
// the historical byte block, and any trailing bytes up to inter-byte
// timeout.
func (r *Reader) readATR() ([]byte, error) {
	var ts, t0 byte
	for {
		b, ok, err := r.port.ReadByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			if ts == 0x3B {
				return nil, &link.ProtocolError{Msg: "ATR truncated after TS"}
			}
			return nil, &link.NoCardError{}
		}
		if b == 0x3B {
			ts = b
			continue
		}
		if ts == 0x3B {
			t0 = b
			break
		}
		return nil, &link.ProtocolError{Msg: fmt.Sprintf("unexpected TS byte %02X", b)}
	}
	atr := []byte{0x3B, t0}

	td := t0
	for {
		if td&0x10 != 0 {
			b, err := r.readOne()
			if err != nil {
				return nil, err
			}
			atr = append(atr, b)
		}
		if td&0x20 != 0 {
			b, err := r.readOne()
			if err != nil {
				return nil, err
			}
			atr = append(atr, b)
		}
		if td&0x40 != 0 {
			b, err := r.readOne()
			if err != nil {
				return nil, err
			}
			atr = append(atr, b)
		}
		if td&0x80 != 0 {
			b, err := r.readOne()
			if err != nil {
				return nil, err
			}
			atr = append(atr, b)
			td = b
			continue
		}
		break
	}

	hbLen := int(t0 & 0x0F)
	for i := 0; i < hbLen; i++ {
		b, err := r.readOne()
		if err != nil {
			return nil, err
		}
		atr = append(atr, b)
	}

	// Drain any trailing bytes (e.g. TCK) subject to the inter-byte timeout.
	for {
		b, ok, err := r.port.ReadByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		atr = append(atr, b)
	}

	return atr, nil
}

func (r *Reader) readOne() (byte, error) {
	b, ok, err := r.port.ReadByte()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &link.ProtocolError{Msg: "ATR truncated"}
	}
	return b, nil
}

// SendPPS negotiates a PPS using TA1 from the current ATR (or the default
// FI/DI byte if the ATR carried no TA1).
func (r *Reader) SendPPS() error {
	if r.atr == nil {
		return &link.NotInitializedError{Msg: "PPS requires a prior ATR"}
	}
	ta1, ok := r.atr.TA1()
	if !ok {
		ta1 = byte(link.DefaultFI<<4 | link.DefaultDI)
	}
	proposal := link.PPSProposal(ta1)
	if err := r.port.Write(proposal); err != nil {
		return err
	}
	resp, err := r.port.ReadBytes(len(proposal))
	if err != nil {
		return err
	}
	if err := r.params.ApplyPPSResponse(proposal, resp); err != nil {
		return err
	}
	baud, err := r.params.Baud()
	if err != nil {
		return err
	}
	if err := r.port.SetBaud(baud); err != nil {
		return err
	}
	r.port.SetInterByteTimeout(10 * time.Millisecond)
	return nil
}

// Connect performs a reset and, if doPPS, a PPS negotiation.
func (r *Reader) Connect(doPPS bool) error {
	if err := r.ResetCard(); err != nil {
		return err
	}
	if doPPS {
		return r.SendPPS()
	}
	return nil
}

// WaitForCard polls ResetCard until it succeeds, tolerating up to two
// consecutive protocol errors (a card half-inserted during polling).
// WaitForCard polls ResetCard until a card answers reset or timeout elapses.
// With newCardOnly set, a card already present when the wait starts doesn't
// satisfy the wait: the caller instead waits for that card to be removed and
// a fresh one to answer reset.
func (r *Reader) WaitForCard(timeout time.Duration, newCardOnly bool) error {
	deadline := time.Now().Add(timeout)
	consecutiveProtoErrs := 0

	existing := false
	if newCardOnly {
		existing = r.ResetCard() == nil
	}

	for time.Now().Before(deadline) {
		err := r.ResetCard()
		if err == nil {
			if !newCardOnly || !existing {
				return nil
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}
		switch err.(type) {
		case *link.NoCardError:
			existing = false
			consecutiveProtoErrs = 0
		case *link.ProtocolError:
			consecutiveProtoErrs++
			if consecutiveProtoErrs > 2 {
				return err
			}
		default:
			consecutiveProtoErrs = 0
		}
		time.Sleep(500 * time.Millisecond)
	}
	return &link.NoCardError{Msg: "timed out waiting for card"}
}

// SendAPDURaw transmits a raw APDU (SendAPDUHex below accepts a hex string
// instead) and returns the response data and status word as lowercase hex
// strings.
func (r *Reader) SendAPDURaw(apdu []byte) (dataHex, swHex string, err error) {
	data, err := r.txAPDU(apdu)
	if err != nil {
		return "", "", err
	}
	if len(data) < 2 {
		return "", "", &link.ProtocolError{Msg: "response shorter than SW"}
	}
	return hex.EncodeToString(data[:len(data)-2]), hex.EncodeToString(data[len(data)-2:]), nil
}

// SendAPDUHex is a convenience wrapper accepting a hex-encoded APDU string.
func (r *Reader) SendAPDUHex(apduHex string) (dataHex, swHex string, err error) {
	apdu, err := hex.DecodeString(apduHex)
	if err != nil {
		return "", "", fmt.Errorf("decode APDU hex: %w", err)
	}
	return r.SendAPDURaw(apdu)
}

func (r *Reader) txAPDU(apdu []byte) ([]byte, error) {
	if len(apdu) < 5 {
		return nil, fmt.Errorf("APDU header must be at least 5 bytes, got %d", len(apdu))
	}
	h := classifier.Header{CLA: apdu[0], INS: apdu[1], P1: apdu[2], P2: apdu[3], P3: apdu[4]}
	result := classifier.Classify(h, r.profile)

	if err := r.port.Write(apdu[:5]); err != nil {
		return nil, err
	}

	switch result.Case {
	case 1:
		return r.rxCardResponse(2, h.INS)
	case 2:
		le := int(h.P3)
		if le == 0 {
			le = 256
		}
		return r.rxCardResponse(le+2, h.INS)
	case 3, 4:
		return r.txCaseThreeOrFour(apdu, h)
	default:
		log.WithFields(log.Fields{"cla": h.CLA, "ins": h.INS}).Warn("reader: unknown APDU case, falling back to 2-byte read")
		return r.rxCardResponse(2, h.INS)
	}
}

func (r *Reader) txCaseThreeOrFour(apdu []byte, h classifier.Header) ([]byte, error) {
	proc, err := r.readOne()
	if err != nil {
		return nil, err
	}
	if proc != h.INS {
		// Card aborted: proc is actually SW1, read SW2 and return.
		sw2, err := r.readOne()
		if err != nil {
			return nil, err
		}
		return []byte{proc, sw2}, nil
	}
	if len(apdu) < 5+int(h.P3) {
		return nil, fmt.Errorf("APDU command data shorter than Lc=%d", h.P3)
	}
	if err := r.port.Write(apdu[5 : 5+int(h.P3)]); err != nil {
		return nil, err
	}
	return r.rxCardResponse(2, h.INS)
}

// rxCardResponse discards NULL (WXT) and procedure-byte-repeat bytes, then
// reads the remaining n-1 bytes of the frame.
func (r *Reader) rxCardResponse(n int, proc byte) ([]byte, error) {
	const wxt = 0x60
	for {
		b, err := r.readOne()
		if err != nil {
			return nil, err
		}
		if b == wxt || b == proc {
			continue
		}
		rest, err := r.port.ReadBytes(n - 1)
		if err != nil {
			return nil, err
		}
		if len(rest) != n-1 {
			return nil, &link.ProtocolError{Msg: "short response frame"}
		}
		return append([]byte{b}, rest...), nil
	}
}

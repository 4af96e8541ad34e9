package link

import (
	"bytes"
	"fmt"
	"math"
)

// clockRateConversion is the ISO 7816-3 table 7 clock rate conversion
// factor F, indexed by the TA1 high nibble. "RFU" slots are reserved and
// must never be dereferenced.
var clockRateConversion = [16]int{
	372, 372, 558, 744, 1116, 1488, 1860, -1,
	-1, 512, 768, 1024, 1536, 2048, -1, -1,
}

// bitRateAdjustment is table 8, the bit rate adjustment factor D, indexed
// by the TA1 low nibble.
var bitRateAdjustment = [16]int{
	-1, 1, 2, 4, 8, 16, 32, 64,
	12, 20, -1, -1, -1, -1, -1, -1,
}

const (
	// DefaultFI is the initial clock rate conversion index before any PPS.
	DefaultFI = 0
	// DefaultDI is the initial bit rate adjustment index before any PPS.
	DefaultDI = 1
	// DefaultWI is the waiting time integer. TC2 is not parsed from the
	// ATR, so this value is always used.
	DefaultWI = 10
)

// Params tracks the negotiated F/D/WI state of a T=0 link plus the card
// clock, and derives baud rate, work ETU and waiting time from them.
type Params struct {
	FI  int
	DI  int
	WI  int
	Clk int // card clock in Hz
}

// NewParams returns link parameters at their ATR-default FI/DI/WI.
func NewParams(clockHz int) *Params {
	return &Params{FI: DefaultFI, DI: DefaultDI, WI: DefaultWI, Clk: clockHz}
}

// F returns the clock rate conversion factor for the current FI.
func (p *Params) F() (int, error) {
	if p.FI < 0 || p.FI >= len(clockRateConversion) || clockRateConversion[p.FI] < 0 {
		return 0, &ProtocolError{Msg: fmt.Sprintf("FI=%d is RFU", p.FI)}
	}
	return clockRateConversion[p.FI], nil
}

// D returns the bit rate adjustment factor for the current DI.
func (p *Params) D() (int, error) {
	if p.DI < 0 || p.DI >= len(bitRateAdjustment) || bitRateAdjustment[p.DI] < 0 {
		return 0, &ProtocolError{Msg: fmt.Sprintf("DI=%d is RFU", p.DI)}
	}
	return bitRateAdjustment[p.DI], nil
}

// Baud returns the serial baud rate implied by the current F, D and clock.
func (p *Params) Baud() (int, error) {
	f, err := p.F()
	if err != nil {
		return 0, err
	}
	d, err := p.D()
	if err != nil {
		return 0, err
	}
	if f == 0 {
		return 0, &ProtocolError{Msg: "F is zero"}
	}
	return int(math.Round(float64(p.Clk) * float64(d) / float64(f))), nil
}

// WorkEtu returns the work elementary time unit in seconds.
func (p *Params) WorkEtu() (float64, error) {
	f, err := p.F()
	if err != nil {
		return 0, err
	}
	d, err := p.D()
	if err != nil {
		return 0, err
	}
	if d == 0 || p.Clk == 0 {
		return 0, &ProtocolError{Msg: "clock or D is zero"}
	}
	return float64(f) / (float64(p.Clk) * float64(d)), nil
}

// WaitingTime returns the T=0 waiting time in seconds: 960 * D * WI * workEtu.
func (p *Params) WaitingTime() (float64, error) {
	d, err := p.D()
	if err != nil {
		return 0, err
	}
	etu, err := p.WorkEtu()
	if err != nil {
		return 0, err
	}
	return 960 * float64(d) * float64(p.WI) * etu, nil
}

// PPSProposal builds the PPS request [0xFF, 0x10, TA1, XOR-checksum] for the
// given ATR's TA1 byte (or the default FI/DI byte if the ATR carried none).
func PPSProposal(ta1 byte) []byte {
	pps := []byte{0xFF, 0x10, ta1, 0}
	var xsum byte
	for _, b := range pps[:3] {
		xsum ^= b
	}
	pps[3] = xsum
	return pps
}

// ApplyPPSResponse validates a PPS response against the sent proposal and,
// on success, updates FI/DI from the negotiated PPS1 byte.
func (p *Params) ApplyPPSResponse(proposal, response []byte) error {
	if len(response) < 4 {
		return &ProtocolError{Msg: "PPS response too short"}
	}
	if response[0] != 0xFF {
		return &ProtocolError{Msg: "PPS response missing PPSS byte"}
	}
	if len(proposal) >= 3 && response[2] != proposal[2] {
		return &ProtocolError{Msg: "PPS response did not accept proposed PPS1"}
	}
	if !bytes.Equal(response, proposal) {
		return &ProtocolError{Msg: "PPS response differs from proposal"}
	}
	p.FI = int(response[2] >> 4)
	p.DI = int(response[2] & 0x0F)
	return nil
}

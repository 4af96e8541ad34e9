package link

import (
	"fmt"
	"strings"
)

// ATR represents the decoded Answer To Reset.
type ATR struct {
	Raw []byte
	TS  byte
	T0  byte
	TA  map[int]byte
	TB  map[int]byte
	TC  map[int]byte
	TD  map[int]byte
	HB  []byte
	TCK *byte
}

// DecodeATR parses an already-captured ATR byte slice. Reader.ResetCard
// calls it on the raw bytes it collects during reset, and the virtual card
// calls it on the ATR it has just sent.
func DecodeATR(atr []byte) (*ATR, error) {
	if len(atr) < 2 {
		return nil, &ProtocolError{Msg: "ATR too short"}
	}
	a := &ATR{
		Raw: atr,
		TS:  atr[0],
		T0:  atr[1],
		TA:  make(map[int]byte),
		TB:  make(map[int]byte),
		TC:  make(map[int]byte),
		TD:  make(map[int]byte),
	}

	hbLen := int(a.T0 & 0x0F)
	ptr := 2
	pn := 1
	td := a.T0

	for ptr < len(atr) {
		if td&0x10 != 0 {
			if ptr >= len(atr) {
				break
			}
			a.TA[pn] = atr[ptr]
			ptr++
		}
		if td&0x20 != 0 {
			if ptr >= len(atr) {
				break
			}
			a.TB[pn] = atr[ptr]
			ptr++
		}
		if td&0x40 != 0 {
			if ptr >= len(atr) {
				break
			}
			a.TC[pn] = atr[ptr]
			ptr++
		}
		if td&0x80 != 0 {
			if ptr >= len(atr) {
				break
			}
			td = atr[ptr]
			a.TD[pn] = td
			ptr++
			pn++
		} else {
			break
		}
	}

	if ptr+hbLen <= len(atr) {
		a.HB = atr[ptr : ptr+hbLen]
		ptr += hbLen
	} else if ptr < len(atr) {
		a.HB = atr[ptr:]
		ptr = len(atr)
	}

	if ptr < len(atr) {
		a.TCK = &atr[ptr]
	}

	return a, nil
}

// TA1 returns the TA1 byte and whether the ATR carried one.
func (a *ATR) TA1() (byte, bool) {
	v, ok := a.TA[1]
	return v, ok
}

// Convention reports the direct ("Direct") or inverse ("Inverse") convention
// signalled by TS.
func (a *ATR) Convention() string {
	switch a.TS {
	case 0x3B:
		return "Direct"
	case 0x3F:
		return "Inverse"
	default:
		return "Unknown"
	}
}

func (a *ATR) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ATR: %X\n", a.Raw)
	fmt.Fprintf(&sb, "  Convention: %s\n", a.Convention())
	if ta1, ok := a.TA1(); ok {
		fmt.Fprintf(&sb, "  TA1: %02X (FI=%d, DI=%d)\n", ta1, ta1>>4, ta1&0x0F)
	}
	if len(a.HB) > 0 {
		fmt.Fprintf(&sb, "  Historical bytes: %X\n", a.HB)
	}
	if a.TCK != nil {
		fmt.Fprintf(&sb, "  TCK: %02X\n", *a.TCK)
	}
	return sb.String()
}

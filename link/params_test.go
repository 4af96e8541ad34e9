package link

import "testing"

func TestParamsDefault(t *testing.T) {
	p := NewParams(3571200)
	baud, err := p.Baud()
	if err != nil {
		t.Fatalf("Baud: %v", err)
	}
	// FI=0 -> F=372, DI=1 -> D=1: baud = round(clk*1/372)
	want := 9600
	if baud != want {
		t.Errorf("Baud = %d, want %d", baud, want)
	}
}

func TestPPSProposal(t *testing.T) {
	got := PPSProposal(0x96)
	want := []byte{0xFF, 0x10, 0x96, 0x79}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %02X, want %02X", i, got[i], want[i])
		}
	}
}

func TestApplyPPSResponse(t *testing.T) {
	p := NewParams(3571200)
	proposal := PPSProposal(0x96)
	resp := []byte{0xFF, 0x10, 0x96, 0x79}
	if err := p.ApplyPPSResponse(proposal, resp); err != nil {
		t.Fatalf("ApplyPPSResponse: %v", err)
	}
	if p.FI != 9 || p.DI != 6 {
		t.Fatalf("FI=%d DI=%d, want FI=9 DI=6", p.FI, p.DI)
	}
	f, _ := p.F()
	d, _ := p.D()
	if f != 512 || d != 32 {
		t.Errorf("F=%d D=%d, want F=512 D=32", f, d)
	}
}

func TestApplyPPSResponseMismatch(t *testing.T) {
	p := NewParams(3571200)
	proposal := PPSProposal(0x96)
	resp := []byte{0xFF, 0x10, 0x11, 0xEE}
	if err := p.ApplyPPSResponse(proposal, resp); err == nil {
		t.Fatal("expected error on mismatched PPS response")
	}
}

func TestRFUFactorsFail(t *testing.T) {
	p := NewParams(3571200)
	p.FI = 7
	if _, err := p.F(); err == nil {
		t.Error("expected error for RFU FI")
	}
	p.FI = 0
	p.DI = 10
	if _, err := p.D(); err == nil {
		t.Error("expected error for RFU DI")
	}
}

func TestWaitingTime(t *testing.T) {
	p := NewParams(3571200)
	wt, err := p.WaitingTime()
	if err != nil {
		t.Fatalf("WaitingTime: %v", err)
	}
	if wt <= 0 {
		t.Errorf("WaitingTime = %v, want > 0", wt)
	}
}

func TestDecodeATR(t *testing.T) {
	atrBytes := []byte{0x3B, 0x9F, 0x96, 0x80, 0x1F, 0xC6, 0x80, 0x31, 0xE0, 0x73, 0xFE, 0x21, 0x1B, 0x66, 0xD0, 0x02, 0x21, 0xAB, 0x11, 0x18, 0x03, 0x82}
	a, err := DecodeATR(atrBytes)
	if err != nil {
		t.Fatalf("DecodeATR: %v", err)
	}
	if a.TS != 0x3B {
		t.Errorf("TS = %02X, want 3B", a.TS)
	}
	ta1, ok := a.TA1()
	if !ok || ta1 != 0x96 {
		t.Errorf("TA1 = %02X, ok=%v, want 96", ta1, ok)
	}
}

func TestDecodeATRTooShort(t *testing.T) {
	if _, err := DecodeATR([]byte{0x3B}); err == nil {
		t.Error("expected error for short ATR")
	}
}

package vcard

import (
	"testing"
)

func newTestVCard() (*VCard, *fakePort) {
	fp := &fakePort{}
	v := New(fp, Options{ClockHz: 3571200})
	return v, fp
}

func TestRxAPDUCase1NoData(t *testing.T) {
	v, fp := newTestVCard()
	fp.pushRX(0x00, 0x70, 0x00, 0x00, 0x00)
	header, data, le, apduCase, err := v.rxAPDU()
	if err != nil {
		t.Fatalf("rxAPDU: %v", err)
	}
	if len(data) != 0 || le != 2 || apduCase != 1 {
		t.Errorf("data=%v le=%d case=%d, want empty/2/1", data, le, apduCase)
	}
	if header[1] != 0x70 {
		t.Errorf("INS = %02X, want 70", header[1])
	}
}

func TestRxAPDUCase2ResponseData(t *testing.T) {
	v, fp := newTestVCard()
	fp.pushRX(0x00, 0xB0, 0x00, 0x00, 0x05)
	_, data, le, apduCase, err := v.rxAPDU()
	if err != nil {
		t.Fatalf("rxAPDU: %v", err)
	}
	if len(data) != 0 || le != 7 || apduCase != 2 {
		t.Errorf("data=%v le=%d case=%d, want empty/7/2", data, le, apduCase)
	}
}

func TestRxAPDUCase3CommandData(t *testing.T) {
	v, fp := newTestVCard()
	fp.pushRX(0x00, 0xD6, 0x00, 0x00, 0x02, 0xAA, 0xBB)
	header, data, le, apduCase, err := v.rxAPDU()
	if err != nil {
		t.Fatalf("rxAPDU: %v", err)
	}
	if len(data) != 2 || data[0] != 0xAA || data[1] != 0xBB {
		t.Errorf("data = %X, want AABB", data)
	}
	if le != 2 || apduCase != 3 {
		t.Errorf("le=%d case=%d, want 2/3", le, apduCase)
	}
	writes := fp.allWrites()
	if len(writes) != 1 || writes[0] != header[1] {
		t.Errorf("expected a single procedure-byte write of %02X, got %X", header[1], writes)
	}
}

func TestGetResponseFixupCachesOverLongResponse(t *testing.T) {
	v, fp := newTestVCard()
	long := []byte{1, 2, 3, 4, 5, 6, 7, 8, 0x90, 0x00} // 10 bytes, le=2 expected
	if err := v.sendResponse(0x70, long, 2, 1); err != nil {
		t.Fatalf("sendResponse: %v", err)
	}
	got := fp.allWrites()
	if len(got) != 2 || got[0] != 0x61 || got[1] != 0x08 {
		t.Fatalf("first response = %X, want 61 08", got)
	}

	fp.writes = nil
	if err := v.sendResponse(0xC0, nil, 2, 2); err != nil {
		t.Fatalf("sendResponse (GET RESPONSE): %v", err)
	}
	got = fp.allWrites()
	// GET RESPONSE is itself a case 2 command, so its reply carries a
	// leading instruction-byte procedure byte ahead of the cached data.
	want := append([]byte{0xC0}, long...)
	if len(got) != len(want) {
		t.Fatalf("cached response = %X, want %X", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cached response = %X, want %X", got, want)
		}
	}
}

func TestSendResponseWrongLe(t *testing.T) {
	v, fp := newTestVCard()
	short := []byte{0xAA, 0x90, 0x00} // 3 bytes but le=5 expected
	if err := v.sendResponse(0xB0, short, 5, 2); err != nil {
		t.Fatalf("sendResponse: %v", err)
	}
	got := fp.allWrites()
	if len(got) != 2 || got[0] != 0x6C || got[1] != 0x01 {
		t.Fatalf("got %X, want 6C 01", got)
	}
}

func TestSendResponseExactLengthCase2PrependsIns(t *testing.T) {
	v, fp := newTestVCard()
	exact := []byte{0xAA, 0xBB, 0x90, 0x00}
	if err := v.sendResponse(0xB0, exact, 4, 2); err != nil {
		t.Fatalf("sendResponse: %v", err)
	}
	got := fp.allWrites()
	want := append([]byte{0xB0}, exact...)
	if len(got) != len(want) || got[0] != 0xB0 {
		t.Fatalf("got %X, want %X", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %X, want %X", got, want)
		}
	}
}

func TestSendResponseExactLengthCase1NoPrefix(t *testing.T) {
	v, fp := newTestVCard()
	exact := []byte{0x90, 0x00}
	if err := v.sendResponse(0x70, exact, 2, 1); err != nil {
		t.Fatalf("sendResponse: %v", err)
	}
	got := fp.allWrites()
	if len(got) != 2 || got[0] != 0x90 || got[1] != 0x00 {
		t.Fatalf("got %X, want 9000 with no instruction-byte prefix", got)
	}
}

func TestHandleWithHeartbeatReturnsHandlerResult(t *testing.T) {
	v, _ := newTestVCard()
	v.handler = func(apdu []byte) ([]byte, error) {
		return []byte{0x90, 0x00}, nil
	}
	resp, err := v.handleWithHeartbeat([]byte{0x00, 0x70, 0x00, 0x00, 0x00})
	if err != nil {
		t.Fatalf("handleWithHeartbeat: %v", err)
	}
	if len(resp) != 2 || resp[0] != 0x90 || resp[1] != 0x00 {
		t.Errorf("resp = %X, want 9000", resp)
	}
}

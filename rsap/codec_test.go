package rsap

import "testing"

func TestEncodeConnectReq(t *testing.T) {
	got, err := Encode("CONNECT_REQ", []Param{{Name: "MaxMsgSize", Value: []byte{0xFF, 0xFF}}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0xFF, 0xFF, 0x00, 0x00}
	if len(got) != len(want) {
		t.Fatalf("len(got)=%d, want %d (% X vs % X)", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %02X, want %02X (got=% X)", i, got[i], want[i], got)
		}
	}
}

func TestEncodeMissingMandatoryParam(t *testing.T) {
	_, err := Encode("CONNECT_REQ", nil)
	if err == nil {
		t.Fatal("expected error for missing mandatory MaxMsgSize")
	}
}

func TestEncodeUnknownParamRejected(t *testing.T) {
	_, err := Encode("DISCONNECT_REQ", []Param{{Name: "MaxMsgSize", Value: []byte{0, 1}}})
	if err == nil {
		t.Fatal("expected error for param not allowed on this message")
	}
}

func TestEncodeWrongDeclaredLength(t *testing.T) {
	_, err := Encode("CONNECT_REQ", []Param{{Name: "MaxMsgSize", Value: []byte{0xFF}}})
	if err == nil {
		t.Fatal("expected error for wrong declared length")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	encoded, err := Encode("TRANSFER_APDU_RESP", []Param{
		{Name: "ResultCode", Value: []byte{0x00}},
		{Name: "ResponseAPDU", Value: []byte{0xAA, 0xBB, 0x90, 0x00}},
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	frame, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if frame.MessageName != "TRANSFER_APDU_RESP" {
		t.Errorf("MessageName = %q, want TRANSFER_APDU_RESP", frame.MessageName)
	}
	rc, ok := frame.Get("ResultCode")
	if !ok || len(rc) != 1 || rc[0] != 0x00 {
		t.Errorf("ResultCode = %v ok=%v, want [0]", rc, ok)
	}
	apdu, ok := frame.Get("ResponseAPDU")
	if !ok || len(apdu) != 4 {
		t.Errorf("ResponseAPDU = %X ok=%v, want 4 bytes", apdu, ok)
	}
}

func TestDecodeRejectsMissingMandatory(t *testing.T) {
	// Hand-build a TRANSFER_APDU_RESP frame with zero parameters, which
	// omits the mandatory ResultCode.
	raw := []byte{0x06, 0x00, 0x00, 0x00}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected error for missing mandatory ResultCode on decode")
	}
}

func TestDecodeUnknownMessageID(t *testing.T) {
	raw := []byte{0xFE, 0x00, 0x00, 0x00}
	if _, err := Decode(raw); err == nil {
		t.Fatal("expected error for unknown message id")
	}
}

func TestPaddingAlwaysMultipleOfFour(t *testing.T) {
	for n := 0; n < 20; n++ {
		total := 4 + n + paddingLen(n)
		if total%4 != 0 {
			t.Errorf("n=%d: total %d not a multiple of 4", n, total)
		}
	}
}

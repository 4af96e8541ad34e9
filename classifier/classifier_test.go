package classifier

import "testing"

func TestClassifyManageSecureChannelCommandData(t *testing.T) {
	h := Header{CLA: 0x00, INS: 0x73, P1: 0x01, P2: 0x80, P3: 0x10}
	got := Classify(h, UICCSIM)
	if got.Case != 3 {
		t.Errorf("Case = %d, want 3 (%+v)", got.Case, got)
	}
}

func TestClassifyTransactDataResponseAndCommand(t *testing.T) {
	resp := Classify(Header{CLA: 0x00, INS: 0x75, P1: 0x00, P2: 0x00, P3: 0x08}, UICCSIM)
	if resp.Case != 2 {
		t.Errorf("response case = %d, want 2", resp.Case)
	}
	cmd := Classify(Header{CLA: 0x00, INS: 0x75, P1: 0x04, P2: 0x00, P3: 0x08}, UICCSIM)
	if cmd.Case != 3 {
		t.Errorf("command case = %d, want 3", cmd.Case)
	}
}

func TestClassifySelectISO7816(t *testing.T) {
	got := Classify(Header{CLA: 0x00, INS: 0xA4, P1: 0x04, P2: 0x00, P3: 0x02}, ISO7816)
	if got.Case != 4 || got.Name != "SELECT" {
		t.Errorf("got %+v, want SELECT case 4", got)
	}
}

func TestClassifyUnknownINS(t *testing.T) {
	got := Classify(Header{CLA: 0x00, INS: 0xFF}, ISO7816)
	if got.Case != 0 || got.Name != "UNKNOWN" {
		t.Errorf("got %+v, want UNKNOWN", got)
	}
}

func TestClassifyGSM1111SelectIsCase3(t *testing.T) {
	got := Classify(Header{CLA: 0xA0, INS: 0xA4, P1: 0x00, P2: 0x00, P3: 0x02}, GSM1111)
	if got.Case != 3 {
		t.Errorf("Case = %d, want 3", got.Case)
	}
}

func TestClassifyNeverReturnsCaseFive(t *testing.T) {
	for cla := 0; cla < 256; cla++ {
		for ins := 0; ins < 256; ins++ {
			got := Classify(Header{CLA: byte(cla), INS: byte(ins)}, UICCSIM)
			if got.Case == 5 {
				t.Fatalf("case 5 leaked for CLA=%02X INS=%02X", cla, ins)
			}
		}
	}
}

func TestByName(t *testing.T) {
	if _, ok := ByName("UICC+SIM"); !ok {
		t.Error("expected default profile to be registered")
	}
	if _, ok := ByName("does-not-exist"); ok {
		t.Error("expected unknown profile name to miss")
	}
}

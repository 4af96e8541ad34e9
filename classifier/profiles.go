package classifier

// manageSecureChannelCase resolves UICC MANAGE SECURE CHANNEL (INS=0x73).
func manageSecureChannelCase(h Header) int {
	switch {
	case h.P1 == 0x00: // Retrieve UICC Endpoints
		return 2
	case h.P1&0x07 == 4: // Terminate SA
		return 3
	case h.P1&0x07 >= 1 && h.P1&0x07 <= 3: // Establish/Start SA
		switch {
		case h.P2 == 0x80:
			return 3
		case h.P2>>5 == 0:
			return 3
		case h.P2>>5 == 1 || h.P2>>5 == 5:
			return 2
		}
	}
	return 0
}

// transactDataCase resolves UICC TRANSACT DATA (INS=0x75).
func transactDataCase(h Header) int {
	if h.P1&0x04 != 0 {
		return 3
	}
	return 2
}

func uiccHelper(h Header) int {
	switch h.INS {
	case 0x73:
		return manageSecureChannelCase(h)
	case 0x75:
		return transactDataCase(h)
	default:
		return 0
	}
}

// ISO7816 is the plain ISO/IEC 7816-4 profile: any CLA, no masking.
var ISO7816 = Profile{
	Name: "ISO7816-4",
	Matches: []ClassMatch{
		{CLA: 0x00, Mask: 0x00, Table: iso7816Table},
	},
}

// GSM1111 matches GSM 11.11 CLA 0xA0 only.
var GSM1111 = Profile{
	Name: "GSM11.11",
	Matches: []ClassMatch{
		{CLA: 0xA0, Mask: 0xFF, Table: gsm1111Table},
	},
}

// UICC matches the TS 102 221 / TS 31.102 CLA families. CLA 0x80 exact is
// the administrative instruction set (TERMINAL PROFILE, ENVELOPE, MANAGE
// SECURE CHANNEL, ...) and is checked first since it is a single point in
// the wider 0x8X/0xCX/0xEX GlobalPlatform-style family. The low nibble of
// CLA carries the logical channel number and is masked off.
var UICC = Profile{
	Name: "UICC",
	Matches: []ClassMatch{
		{CLA: 0x80, Mask: 0xFF, Table: uicc80Table, Helper: uiccHelper},
		{CLA: 0x00, Mask: 0xF0, Table: uicc046Table, Helper: uiccHelper},
		{CLA: 0x40, Mask: 0xF0, Table: uicc046Table, Helper: uiccHelper},
		{CLA: 0x60, Mask: 0xF0, Table: uicc046Table, Helper: uiccHelper},
		{CLA: 0x80, Mask: 0xF0, Table: uicc8ceTable},
		{CLA: 0xC0, Mask: 0xF0, Table: uicc8ceTable},
		{CLA: 0xE0, Mask: 0xF0, Table: uicc8ceTable},
	},
}

// UICCSIM is the default profile: UICC rows first, GSM 11.11 as fallback
// for legacy CLA 0xA0 traffic.
var UICCSIM = Profile{
	Name:    "UICC+SIM",
	Matches: append(append([]ClassMatch{}, UICC.Matches...), GSM1111.Matches...),
}

// Profiles is the registry of built-in profiles, keyed by name.
var Profiles = map[string]Profile{
	ISO7816.Name: ISO7816,
	GSM1111.Name: GSM1111,
	UICC.Name:    UICC,
	UICCSIM.Name: UICCSIM,
}

// DefaultProfileName is the profile selected absent an explicit --profile flag.
const DefaultProfileName = "UICC+SIM"

// ByName looks up a built-in profile, returning ok=false for an unknown name.
func ByName(name string) (Profile, bool) {
	p, ok := Profiles[name]
	return p, ok
}

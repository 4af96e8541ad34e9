// Package classifier resolves an APDU header to its ISO 7816-3 command
// case (1..4) so the T=0 engines know whether to expect command data,
// response data, both, or neither.
package classifier

// Header is the 5-byte APDU header (CLA INS P1 P2 P3).
type Header struct {
	CLA, INS, P1, P2, P3 byte
}

// Result is the outcome of classifying a header.
type Result struct {
	Name string
	Case int
}

// unknown is returned when no profile entry matches.
var unknown = Result{Name: "UNKNOWN", Case: 0}

// Helper resolves an ambiguous (case 5) instruction table entry into a
// concrete case 2 or 3 given the full header.
type Helper func(h Header) int

// ClassMatch is one CLA-masked row of a profile: any header whose
// (CLA & Mask) equals CLA selects this row's instruction table.
type ClassMatch struct {
	CLA    byte
	Mask   byte
	Table  map[byte]InstructionEntry
	Helper Helper
}

// InstructionEntry is one INS row of an instruction table.
type InstructionEntry struct {
	Name string `json:"name"`
	Case int    `json:"case"`
}

// Profile is an ordered list of class matches; the first matching row wins.
type Profile struct {
	Name    string
	Matches []ClassMatch
}

// Classify resolves h against p, returning the first matching profile row's
// instruction entry with any case-5 ambiguity resolved by its helper. A
// completely unmatched header, or an INS absent from the matched table,
// yields Result{"UNKNOWN", 0}.
func Classify(h Header, p Profile) Result {
	for _, m := range p.Matches {
		if h.CLA&m.Mask != m.CLA {
			continue
		}
		entry, ok := m.Table[h.INS]
		if !ok {
			return unknown
		}
		if entry.Case != 5 {
			return Result{Name: entry.Name, Case: entry.Case}
		}
		if m.Helper == nil {
			return unknown
		}
		return Result{Name: entry.Name, Case: m.Helper(h)}
	}
	return unknown
}

package rsap

import (
	"encoding/binary"
	"fmt"

	"cardlink/link"
)

// Param is a decoded (or to-be-encoded) SAP parameter.
type Param struct {
	Name  string
	Value []byte
}

// Frame is a decoded SAP message: its name and the parameters it carried.
type Frame struct {
	MessageName string
	Params      []Param
}

func paddingLen(payloadLen int) int {
	return (4 - (4+payloadLen)%4) % 4
}

// Encode builds the wire bytes for msgName carrying params, validating
// that every param is allowed for that message, every mandatory param is
// present, and every param's length matches its registry declaration.
func Encode(msgName string, params []Param) ([]byte, error) {
	msg, ok := Messages[msgName]
	if !ok {
		return nil, fmt.Errorf("rsap: unknown message %q", msgName)
	}

	allowed := make(map[string]bool, len(msg.Params))
	mandatory := make(map[string]bool, len(msg.Params))
	for _, mp := range msg.Params {
		allowed[mp.Name] = true
		if mp.Mandatory {
			mandatory[mp.Name] = true
		}
	}

	present := make(map[string]bool, len(params))
	var body []byte
	for _, p := range params {
		if !allowed[p.Name] {
			return nil, &link.ProtocolError{Msg: fmt.Sprintf("parameter %q not allowed in %s", p.Name, msgName)}
		}
		reg, ok := Parameters[p.Name]
		if !ok {
			return nil, fmt.Errorf("rsap: unknown parameter %q", p.Name)
		}
		if reg.Length >= 0 && len(p.Value) != reg.Length {
			return nil, &link.ProtocolError{Msg: fmt.Sprintf("parameter %q declared length %d, got %d", p.Name, reg.Length, len(p.Value))}
		}
		present[p.Name] = true

		head := make([]byte, 4)
		head[0] = reg.ID
		binary.BigEndian.PutUint16(head[2:], uint16(len(p.Value)))
		body = append(body, head...)
		body = append(body, p.Value...)
		body = append(body, make([]byte, paddingLen(len(p.Value)))...)
	}

	for name := range mandatory {
		if !present[name] {
			return nil, &link.ProtocolError{Msg: fmt.Sprintf("missing mandatory parameter %q for %s", name, msgName)}
		}
	}

	header := make([]byte, 4)
	header[0] = msg.ID
	header[1] = byte(len(params))
	return append(header, body...), nil
}

// Decode parses a SAP wire frame, validating that every mandatory
// parameter for the decoded message is present (symmetric with Encode).
func Decode(raw []byte) (*Frame, error) {
	if len(raw) < 4 {
		return nil, &link.ProtocolError{Msg: "SAP frame shorter than header"}
	}
	msgName, ok := messagesByID[raw[0]]
	if !ok {
		return nil, &link.ProtocolError{Msg: fmt.Sprintf("unknown SAP message id %02X", raw[0])}
	}
	count := int(raw[1])
	msg := Messages[msgName]

	ptr := 4
	frame := &Frame{MessageName: msgName}
	present := make(map[string]bool, count)
	for i := 0; i < count; i++ {
		if ptr+4 > len(raw) {
			return nil, &link.ProtocolError{Msg: "truncated SAP parameter header"}
		}
		id := raw[ptr]
		length := int(binary.BigEndian.Uint16(raw[ptr+2 : ptr+4]))
		ptr += 4
		if ptr+length > len(raw) {
			return nil, &link.ProtocolError{Msg: "truncated SAP parameter value"}
		}
		value := raw[ptr : ptr+length]
		ptr += length + paddingLen(length)

		name, ok := parametersByID[id]
		if !ok {
			return nil, &link.ProtocolError{Msg: fmt.Sprintf("unknown SAP parameter id %02X", id)}
		}
		frame.Params = append(frame.Params, Param{Name: name, Value: value})
		present[name] = true
	}

	for _, mp := range msg.Params {
		if mp.Mandatory && !present[mp.Name] {
			return nil, &link.ProtocolError{Msg: fmt.Sprintf("decoded %s missing mandatory parameter %q", msgName, mp.Name)}
		}
	}

	return frame, nil
}

// Get returns the value of the named parameter, if present.
func (f *Frame) Get(name string) ([]byte, bool) {
	for _, p := range f.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

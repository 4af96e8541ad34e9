// Package rsap implements the rSAP (remote SIM Access Profile) message
// codec and session state machine carried over Bluetooth RFCOMM.
package rsap

// UUID is the Bluetooth SDP service class UUID for SIM Access.
const UUID = "0000112d-0000-1000-8000-00805f9b34fb"

// MaxMsgSize is the largest message size offered during CONNECT.
const MaxMsgSize = 0xFFFF

// Parameter describes one SAP_PARAMETERS registry entry. Length is -1 for
// variable-length parameters (APDUs, ATR).
type Parameter struct {
	ID     byte
	Length int
}

// Parameters is the SAP parameter registry, keyed by name.
var Parameters = map[string]Parameter{
	"MaxMsgSize":         {ID: 0x00, Length: 2},
	"ConnectionStatus":   {ID: 0x01, Length: 1},
	"ResultCode":         {ID: 0x02, Length: 1},
	"DisconnectionType":  {ID: 0x03, Length: 1},
	"CommandAPDU":        {ID: 0x04, Length: -1},
	"ResponseAPDU":       {ID: 0x05, Length: -1},
	"ATR":                {ID: 0x06, Length: -1},
	"CardReaderStatus":   {ID: 0x07, Length: 1},
	"StatusChange":       {ID: 0x08, Length: 1},
	"TransportProtocol":  {ID: 0x09, Length: 1},
	"CommandAPDU7816":    {ID: 0x10, Length: -1},
}

// parametersByID is the inverse of Parameters, for decoding.
var parametersByID = func() map[byte]string {
	m := make(map[byte]string, len(Parameters))
	for name, p := range Parameters {
		m[p.ID] = name
	}
	return m
}()

// Message describes one SAP_MESSAGES registry entry: its wire id and the
// set of parameters it may (and must) carry.
type Message struct {
	ID             byte
	ClientToServer bool
	Params         []MessageParam
}

// MessageParam names one parameter slot of a message and whether it is
// mandatory.
type MessageParam struct {
	Name      string
	Mandatory bool
}

// Messages is the SAP message registry, keyed by name.
var Messages = map[string]Message{
	"CONNECT_REQ": {ID: 0x00, ClientToServer: true, Params: []MessageParam{
		{"MaxMsgSize", true},
	}},
	"CONNECT_RESP": {ID: 0x01, ClientToServer: false, Params: []MessageParam{
		{"ConnectionStatus", true},
		{"MaxMsgSize", false},
	}},
	"DISCONNECT_REQ": {ID: 0x02, ClientToServer: true},
	"DISCONNECT_RESP": {ID: 0x03, ClientToServer: false},
	"DISCONNECT_IND": {ID: 0x04, ClientToServer: false, Params: []MessageParam{
		{"DisconnectionType", true},
	}},
	"TRANSFER_APDU_REQ": {ID: 0x05, ClientToServer: true, Params: []MessageParam{
		{"CommandAPDU", false},
		{"CommandAPDU7816", false},
	}},
	"TRANSFER_APDU_RESP": {ID: 0x06, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
		{"ResponseAPDU", false},
	}},
	"TRANSFER_ATR_REQ": {ID: 0x07, ClientToServer: true},
	"TRANSFER_ATR_RESP": {ID: 0x08, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
		{"ATR", false},
	}},
	"POWER_SIM_OFF_REQ": {ID: 0x09, ClientToServer: true},
	"POWER_SIM_OFF_RESP": {ID: 0x0A, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
	}},
	"POWER_SIM_ON_REQ": {ID: 0x0B, ClientToServer: true},
	"POWER_SIM_ON_RESP": {ID: 0x0C, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
	}},
	"RESET_SIM_REQ": {ID: 0x0D, ClientToServer: true},
	"RESET_SIM_RESP": {ID: 0x0E, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
	}},
	"TRANSFER_CARD_READER_STATUS_REQ": {ID: 0x0F, ClientToServer: true},
	"TRANSFER_CARD_READER_STATUS_RESP": {ID: 0x10, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
		{"CardReaderStatus", false},
	}},
	"STATUS_IND": {ID: 0x11, ClientToServer: false, Params: []MessageParam{
		{"StatusChange", true},
	}},
	"ERROR_RESP": {ID: 0x12, ClientToServer: false},
	"SET_TRANSPORT_PROTOCOL_REQ": {ID: 0x13, ClientToServer: true, Params: []MessageParam{
		{"TransportProtocol", true},
	}},
	"SET_TRANSPORT_PROTOCOL_RESP": {ID: 0x14, ClientToServer: false, Params: []MessageParam{
		{"ResultCode", true},
	}},
}

// messagesByID is the inverse of Messages, for decoding.
var messagesByID = func() map[byte]string {
	m := make(map[byte]string, len(Messages))
	for name, msg := range Messages {
		m[msg.ID] = name
	}
	return m
}()

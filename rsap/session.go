//go:build linux

package rsap

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"cardlink/link"
)

// parseMAC parses a colon-separated Bluetooth address ("AA:BB:CC:DD:EE:FF")
// into the little-endian byte order unix.SockaddrRFCOMM expects.
func parseMAC(mac string) ([6]uint8, error) {
	var addr [6]uint8
	parts := strings.Split(mac, ":")
	if len(parts) != 6 {
		return addr, fmt.Errorf("rsap: invalid MAC address %q", mac)
	}
	for i := 0; i < 6; i++ {
		b, err := strconv.ParseUint(parts[i], 16, 8)
		if err != nil {
			return addr, fmt.Errorf("rsap: invalid MAC address %q: %w", mac, err)
		}
		addr[5-i] = byte(b)
	}
	return addr, nil
}

// Session is a connected rSAP client over Bluetooth RFCOMM. Channel
// discovery (SDP, resolving the UUID to a channel number) is the caller's
// responsibility; Session only speaks the already-resolved channel.
type Session struct {
	fd          int
	maxMsgSize  int
	connected   bool
}

// Dial opens an RFCOMM socket to mac on the given channel and performs the
// rSAP CONNECT handshake.
func Dial(mac string, channel int) (*Session, error) {
	addr, err := parseMAC(mac)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, &link.ReaderError{Msg: "open RFCOMM socket", Err: err}
	}
	sa := &unix.SockaddrRFCOMM{Addr: addr, Channel: uint8(channel)}
	if err := unix.Connect(fd, sa); err != nil {
		unix.Close(fd)
		return nil, &link.ReaderError{Msg: fmt.Sprintf("connect to %s channel %d", mac, channel), Err: err}
	}

	s := &Session{fd: fd}
	if err := s.connect(); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return s, nil
}

func (s *Session) connect() error {
	maxSize := make([]byte, 2)
	maxSize[0] = byte(MaxMsgSize >> 8)
	maxSize[1] = byte(MaxMsgSize)
	req, err := Encode("CONNECT_REQ", []Param{{Name: "MaxMsgSize", Value: maxSize}})
	if err != nil {
		return err
	}
	if err := s.send(req); err != nil {
		return err
	}
	frame, err := s.receive()
	if err != nil {
		return err
	}
	if frame.MessageName != "CONNECT_RESP" {
		return &link.ProtocolError{Msg: "expected CONNECT_RESP, got " + frame.MessageName}
	}
	status, _ := frame.Get("ConnectionStatus")
	if len(status) != 1 || status[0] != 0x00 {
		return &link.ProtocolError{Msg: "rSAP server refused CONNECT_REQ"}
	}
	s.connected = true
	s.maxMsgSize = MaxMsgSize
	return nil
}

// TransferAPDU sends a command APDU via TRANSFER_APDU_REQ and returns the
// response APDU from TRANSFER_APDU_RESP.
func (s *Session) TransferAPDU(apdu []byte) ([]byte, error) {
	if !s.connected {
		return nil, &link.NotInitializedError{Msg: "rSAP session not connected"}
	}
	req, err := Encode("TRANSFER_APDU_REQ", []Param{{Name: "CommandAPDU", Value: apdu}})
	if err != nil {
		return nil, err
	}
	if err := s.send(req); err != nil {
		return nil, err
	}
	frame, err := s.receive()
	if err != nil {
		return nil, err
	}
	if frame.MessageName != "TRANSFER_APDU_RESP" {
		return nil, &link.ProtocolError{Msg: "expected TRANSFER_APDU_RESP, got " + frame.MessageName}
	}
	result, _ := frame.Get("ResultCode")
	if len(result) != 1 || result[0] != 0x00 {
		return nil, &link.ProtocolError{Msg: "rSAP server returned non-OK ResultCode"}
	}
	resp, _ := frame.Get("ResponseAPDU")
	return resp, nil
}

func (s *Session) send(data []byte) error {
	_, err := unix.Write(s.fd, data)
	if err != nil {
		return &link.ReaderError{Msg: "RFCOMM write", Err: err}
	}
	return nil
}

func (s *Session) receive() (*Frame, error) {
	buf := make([]byte, 4096)
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		return nil, &link.ReaderError{Msg: "RFCOMM read", Err: err}
	}
	return Decode(buf[:n])
}

// Close disconnects and releases the socket.
func (s *Session) Close() error {
	if s.connected {
		req, err := Encode("DISCONNECT_REQ", nil)
		if err == nil {
			_ = s.send(req)
		}
	}
	return unix.Close(s.fd)
}

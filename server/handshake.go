package server

import (
	"errors"
	"io"

	"github.com/karlb/termstack/protocol"
)

var (
	errUnexpectedMessage = errors.New("server: unexpected message type")
)

// handleHandshake performs the initial client/server negotiation. A client
// resuming a prior session presents that session's id as Hello.ClientID; a
// zero ClientID asks for a fresh session. The server always echoes the
// session id that is actually in effect back in Welcome.SessionID.
func handleHandshake(rw io.ReadWriter, mgr *Manager) (*Session, bool, error) {
	hdr, payload, err := protocol.ReadMessage(rw)
	if err != nil {
		return nil, false, err
	}
	if hdr.Type != protocol.MsgHello {
		return nil, false, errUnexpectedMessage
	}
	hello, err := protocol.DecodeHello(payload)
	if err != nil {
		return nil, false, err
	}

	var session *Session
	zeroID := [16]byte{}
	resuming := hello.ClientID != zeroID
	if resuming {
		session, err = mgr.Lookup(hello.ClientID)
		if err != nil {
			session, err = mgr.NewSession()
			resuming = false
		}
	} else {
		session, err = mgr.NewSession()
	}
	if err != nil {
		return nil, false, err
	}

	welcomePayload, err := protocol.EncodeWelcome(protocol.Welcome{
		SessionID:  session.ID(),
		ServerName: "termstack-server",
	})
	if err != nil {
		return nil, false, err
	}
	welcomeHeader := protocol.Header{
		Version:   protocol.Version,
		Type:      protocol.MsgWelcome,
		Flags:     protocol.FlagChecksum,
		SessionID: session.ID(),
	}
	if err := protocol.WriteMessage(rw, welcomeHeader, welcomePayload); err != nil {
		return nil, false, err
	}

	return session, resuming, nil
}

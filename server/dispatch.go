package server

import (
	"io"
	"time"

	"github.com/karlb/termstack/core"
	"github.com/karlb/termstack/protocol"
)

// serve reads and dispatches protocol messages for session until the
// connection errors or closes: one goroutine per connection, handshake
// then loop.
func serve(rw io.ReadWriter, session *Session) error {
	for {
		hdr, payload, err := protocol.ReadMessage(rw)
		if err != nil {
			return err
		}

		start := time.Now()
		respType, respPayload, dispatchErr := dispatchOne(session, hdr.Type, payload)
		session.recordDispatch(hdr.Sequence, time.Since(start))
		if dispatchErr != nil {
			errPayload, _ := protocol.EncodeErrorFrame(protocol.ErrorFrame{Message: dispatchErr.Error()})
			respType, respPayload = protocol.MsgError, errPayload
		}

		respHeader := protocol.Header{
			Version:   protocol.Version,
			Type:      respType,
			Flags:     protocol.FlagChecksum,
			SessionID: session.ID(),
			Sequence:  hdr.Sequence,
		}
		if err := protocol.WriteMessage(rw, respHeader, respPayload); err != nil {
			return err
		}
	}
}

func dispatchOne(session *Session, msgType protocol.MessageType, payload []byte) (protocol.MessageType, []byte, error) {
	coord := session.Coordinator()

	switch msgType {
	case protocol.MsgSpawn:
		spawn, err := protocol.DecodeSpawn(payload)
		if err != nil {
			return 0, nil, err
		}
		if _, err := coord.SpawnTerminal(spawn.Env, spawn.Cwd, spawn.Command); err != nil {
			return 0, nil, err
		}
		return ackResponse()

	case protocol.MsgSpawnGui:
		spawnGui, err := protocol.DecodeSpawnGui(payload)
		if err != nil {
			return 0, nil, err
		}
		mode := core.SpawnGUIBackground
		if !spawnGui.Background {
			mode = core.SpawnGUIForeground
		}
		if _, err := coord.SpawnGUI(spawnGui.Env, spawnGui.Cwd, spawnGui.Command, mode); err != nil {
			return 0, nil, err
		}
		return ackResponse()

	case protocol.MsgBuiltin:
		builtin, err := protocol.DecodeBuiltin(payload)
		if err != nil {
			return 0, nil, err
		}
		coord.SpawnBuiltin(builtin.Prompt, builtin.Command, builtin.Output, !builtin.Success)
		return ackResponse()

	case protocol.MsgClassify:
		classify, err := protocol.DecodeClassify(payload)
		if err != nil {
			return 0, nil, err
		}
		outcome := session.classifier.Classify(classify.Command)
		respPayload, err := protocol.EncodeClassifyResult(protocol.ClassifyResult{Outcome: outcome})
		if err != nil {
			return 0, nil, err
		}
		return protocol.MsgClassifyResult, respPayload, nil

	case protocol.MsgResize:
		resize, err := protocol.DecodeResize(payload)
		if err != nil {
			return 0, nil, err
		}
		coord.ResizeFocusedTerminal(resize.Mode == protocol.ResizeFull)
		return ackResponse()

	default:
		return 0, nil, errUnexpectedMessage
	}
}

func ackResponse() (protocol.MessageType, []byte, error) {
	payload, err := protocol.EncodeAck(protocol.Ack{})
	if err != nil {
		return 0, nil, err
	}
	return protocol.MsgAck, payload, nil
}

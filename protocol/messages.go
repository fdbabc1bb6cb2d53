package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
)

// Hello initiates the handshake from client to server.
type Hello struct {
	ClientID     [16]byte
	ClientName   string
	Capabilities uint32
}

// Welcome is returned by the server acknowledging the handshake.
type Welcome struct {
	SessionID  [16]byte
	ServerName string
}

// ResizeMode selects between the two resize requests a shell-integration
// wrapper can make of the active cell's terminal.
type ResizeMode uint8

const (
	// ResizeFull asks the terminal to grow to the maximum configured row
	// count, e.g. before running a full-screen program.
	ResizeFull ResizeMode = iota
	// ResizeContent asks the terminal to shrink to fit its current content,
	// i.e. the number of lines it has produced so far.
	ResizeContent
)

// Spawn requests a new terminal cell running the given command.
type Spawn struct {
	Prompt  string
	Command string
	Cwd     string
	Env     []string
	// Foreground is carried on the wire; the server's Spawn dispatch does
	// not read it and spawns the terminal the same way either way.
	Foreground bool
}

// SpawnGui requests a new GUI cell. Command is resolved by the shell
// collaborator, not parsed here.
type SpawnGui struct {
	Command    string
	Cwd        string
	Env        []string
	Background bool
}

// Builtin reports the result of a command the shell integration resolved
// without spawning a child process (e.g. a shell function).
type Builtin struct {
	Prompt  string
	Command string
	Output  string
	Success bool
}

// Classify asks the server to classify a candidate command line before the
// client decides whether to submit it as a Spawn.
type Classify struct {
	Command string
}

// ClassifyResult is the server's Classify response. Outcome is one of the
// ClassifyOutcome constants.
type ClassifyResult struct {
	Outcome ClassifyOutcome
}

// ClassifyOutcome enumerates the server-visible Classify response codes.
type ClassifyOutcome uint8

const (
	ClassifyNewCell             ClassifyOutcome = 0
	ClassifyShellStateAffecting ClassifyOutcome = 2
	ClassifyInvalidSyntax       ClassifyOutcome = 3
)

// Resize asks the server to resize the focused cell's terminal.
type Resize struct {
	Mode ResizeMode
}

// Ack is the generic success response to Spawn/SpawnGui/Builtin/Resize.
type Ack struct {
	Sequence uint64
}

// ErrorFrame communicates protocol-level or request-level errors.
type ErrorFrame struct {
	Code    uint16
	Message string
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func encodeStringSlice(buf *bytes.Buffer, values []string) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(values))); err != nil {
		return err
	}
	for _, v := range values {
		if err := encodeString(buf, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeStringSlice(b []byte) ([]string, []byte, error) {
	if len(b) < 2 {
		return nil, nil, errPayloadShort
	}
	count := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	values := make([]string, 0, count)
	for i := uint16(0); i < count; i++ {
		v, rest, err := decodeString(b)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
		b = rest
	}
	return values, b, nil
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(h.ClientName)))
	buf.Write(h.ClientID[:])
	if err := encodeString(buf, h.ClientName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Capabilities); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	if len(b) < 16 {
		return h, errPayloadShort
	}
	copy(h.ClientID[:], b[:16])
	b = b[16:]
	name, rest, err := decodeString(b)
	if err != nil {
		return h, err
	}
	h.ClientName = name
	if len(rest) < 4 {
		return h, errPayloadShort
	}
	h.Capabilities = binary.LittleEndian.Uint32(rest[:4])
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(w.ServerName)))
	buf.Write(w.SessionID[:])
	if err := encodeString(buf, w.ServerName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	if len(b) < 16 {
		return w, errPayloadShort
	}
	copy(w.SessionID[:], b[:16])
	name, _, err := decodeString(b[16:])
	if err != nil {
		return w, err
	}
	w.ServerName = name
	return w, nil
}

func EncodeSpawn(s Spawn) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := encodeString(buf, s.Prompt); err != nil {
		return nil, err
	}
	if err := encodeString(buf, s.Command); err != nil {
		return nil, err
	}
	if err := encodeString(buf, s.Cwd); err != nil {
		return nil, err
	}
	if err := encodeStringSlice(buf, s.Env); err != nil {
		return nil, err
	}
	if s.Foreground {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func DecodeSpawn(b []byte) (Spawn, error) {
	var s Spawn
	prompt, rest, err := decodeString(b)
	if err != nil {
		return s, err
	}
	command, rest, err := decodeString(rest)
	if err != nil {
		return s, err
	}
	cwd, rest, err := decodeString(rest)
	if err != nil {
		return s, err
	}
	env, rest, err := decodeStringSlice(rest)
	if err != nil {
		return s, err
	}
	if len(rest) < 1 {
		return s, errPayloadShort
	}
	s.Prompt = prompt
	s.Command = command
	s.Cwd = cwd
	s.Env = env
	s.Foreground = rest[0] != 0
	return s, nil
}

func EncodeSpawnGui(s SpawnGui) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := encodeString(buf, s.Command); err != nil {
		return nil, err
	}
	if err := encodeString(buf, s.Cwd); err != nil {
		return nil, err
	}
	if err := encodeStringSlice(buf, s.Env); err != nil {
		return nil, err
	}
	if s.Background {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func DecodeSpawnGui(b []byte) (SpawnGui, error) {
	var s SpawnGui
	command, rest, err := decodeString(b)
	if err != nil {
		return s, err
	}
	cwd, rest, err := decodeString(rest)
	if err != nil {
		return s, err
	}
	env, rest, err := decodeStringSlice(rest)
	if err != nil {
		return s, err
	}
	if len(rest) < 1 {
		return s, errPayloadShort
	}
	s.Command = command
	s.Cwd = cwd
	s.Env = env
	s.Background = rest[0] != 0
	return s, nil
}

func EncodeBuiltin(b Builtin) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := encodeString(buf, b.Prompt); err != nil {
		return nil, err
	}
	if err := encodeString(buf, b.Command); err != nil {
		return nil, err
	}
	if err := encodeString(buf, b.Output); err != nil {
		return nil, err
	}
	if b.Success {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func DecodeBuiltin(b []byte) (Builtin, error) {
	var out Builtin
	prompt, rest, err := decodeString(b)
	if err != nil {
		return out, err
	}
	command, rest, err := decodeString(rest)
	if err != nil {
		return out, err
	}
	output, rest, err := decodeString(rest)
	if err != nil {
		return out, err
	}
	if len(rest) < 1 {
		return out, errPayloadShort
	}
	out.Prompt = prompt
	out.Command = command
	out.Output = output
	out.Success = rest[0] != 0
	return out, nil
}

func EncodeClassify(c Classify) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := encodeString(buf, c.Command); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeClassify(b []byte) (Classify, error) {
	var c Classify
	command, _, err := decodeString(b)
	if err != nil {
		return c, err
	}
	c.Command = command
	return c, nil
}

func EncodeClassifyResult(c ClassifyResult) ([]byte, error) {
	return []byte{byte(c.Outcome)}, nil
}

func DecodeClassifyResult(b []byte) (ClassifyResult, error) {
	var c ClassifyResult
	if len(b) < 1 {
		return c, errPayloadShort
	}
	c.Outcome = ClassifyOutcome(b[0])
	return c, nil
}

func EncodeResize(r Resize) ([]byte, error) {
	return []byte{byte(r.Mode)}, nil
}

func DecodeResize(b []byte) (Resize, error) {
	var r Resize
	if len(b) < 1 {
		return r, errPayloadShort
	}
	r.Mode = ResizeMode(b[0])
	return r, nil
}

func EncodeAck(a Ack) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8))
	if err := binary.Write(buf, binary.LittleEndian, a.Sequence); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeAck(b []byte) (Ack, error) {
	var a Ack
	if len(b) < 8 {
		return a, errPayloadShort
	}
	a.Sequence = binary.LittleEndian.Uint64(b[:8])
	return a, nil
}

func EncodeErrorFrame(e ErrorFrame) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := binary.Write(buf, binary.LittleEndian, e.Code); err != nil {
		return nil, err
	}
	if err := encodeString(buf, e.Message); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeErrorFrame(b []byte) (ErrorFrame, error) {
	var e ErrorFrame
	if len(b) < 2 {
		return e, errPayloadShort
	}
	e.Code = binary.LittleEndian.Uint16(b[:2])
	msg, _, err := decodeString(b[2:])
	if err != nil {
		return e, err
	}
	e.Message = msg
	return e, nil
}

package protocol

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// bodyHeader contains the body fields common to all payloads. The payload
// fields are flattened into the same JSON object.
type bodyHeader struct {
	Type      Type    `json:"type"`
	MsgID     *uint64 `json:"msg_id,omitempty"`
	InReplyTo *uint64 `json:"in_reply_to,omitempty"`
}

func (b Body) MarshalJSON() ([]byte, error) {
	if b.Payload == nil {
		return nil, fmt.Errorf("missing payload")
	}

	header, err := json.Marshal(&bodyHeader{
		Type:      b.Payload.Type(),
		MsgID:     b.MsgID,
		InReplyTo: b.InReplyTo,
	})
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	payload, err := json.Marshal(b.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload: %s: %w", b.Payload.Type(), err)
	}
	if len(payload) < 2 || payload[0] != '{' {
		return nil, fmt.Errorf("payload: %s: not an object", b.Payload.Type())
	}

	// An empty payload object adds no fields.
	if bytes.Equal(payload, []byte("{}")) {
		return header, nil
	}

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header[:len(header)-1]...)
	out = append(out, ',')
	out = append(out, payload[1:]...)
	return out, nil
}

func (b *Body) UnmarshalJSON(data []byte) error {
	var header bodyHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}
	if header.Type == "" {
		return fmt.Errorf("missing type")
	}

	decode, ok := decoders[header.Type]
	if !ok {
		return fmt.Errorf("unrecognized type: %s", header.Type)
	}
	payload, err := decode(data)
	if err != nil {
		return fmt.Errorf("payload: %s: %w", header.Type, err)
	}

	b.MsgID = header.MsgID
	b.InReplyTo = header.InReplyTo
	b.Payload = payload
	return nil
}

// Encode encodes the message as a single JSON line, terminated by a newline.
func Encode(m Message) ([]byte, error) {
	b, err := json.Marshal(&m)
	if err != nil {
		return nil, &EncodingError{Err: err}
	}
	return append(b, '\n'), nil
}

// Decode decodes a single JSON line. Any trailing newline is ignored.
func Decode(line []byte) (Message, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Message{}, &DecodingError{Err: fmt.Errorf("empty line")}
	}

	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return Message{}, &DecodingError{Line: string(line), Err: err}
	}
	if m.Body.Payload == nil {
		return Message{}, &DecodingError{
			Line: string(line),
			Err:  fmt.Errorf("missing body"),
		}
	}
	return m, nil
}

package protocol

// Message is a single envelope exchanged between nodes and clients.
//
// A message is treated as immutable once constructed. Replies are built as new
// messages with Reply.
type Message struct {
	// Src is the ID of the node or client that sent the message.
	Src string `json:"src"`

	// Dest is the ID of the node or client the message is addressed to.
	Dest string `json:"dest"`

	Body Body `json:"body"`
}

// Body contains the correlation IDs and payload of a message.
type Body struct {
	// MsgID identifies the message. It is set on requests and on
	// fire-and-forget sends, and omitted on replies that expect no
	// acknowledgement.
	MsgID *uint64

	// InReplyTo contains the MsgID of the request this message replies to.
	InReplyTo *uint64

	Payload Payload
}

// Reply returns a reply to m, with the source and destination swapped and
// the reply correlated to m's message ID.
//
// If seq is given, the reply is stamped with the next message ID from seq.
// Otherwise the reply has no message ID.
//
// The reply payload is nil and must be set by the caller.
func Reply(m Message, seq *Sequence) Message {
	reply := Message{
		Src:  m.Dest,
		Dest: m.Src,
		Body: Body{
			InReplyTo: copyID(m.Body.MsgID),
		},
	}
	if seq != nil {
		reply.Body.MsgID = ID(seq.Next())
	}
	return reply
}

// NewMessage returns a new request message from src to dest. If seq is given
// the message is stamped with the next message ID from seq.
func NewMessage(src, dest string, seq *Sequence, payload Payload) Message {
	m := Message{
		Src:  src,
		Dest: dest,
		Body: Body{
			Payload: payload,
		},
	}
	if seq != nil {
		m.Body.MsgID = ID(seq.Next())
	}
	return m
}

// ID returns a pointer to the given message ID, for use with Body.MsgID and
// Body.InReplyTo.
func ID(id uint64) *uint64 {
	return &id
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	return ID(*id)
}

// Sequence generates monotonically increasing message IDs, starting at 1.
//
// A sequence is owned by a single node and is not safe for concurrent use.
type Sequence struct {
	last uint64
}

// Next increments the sequence and returns the new message ID.
func (s *Sequence) Next() uint64 {
	s.last++
	return s.last
}

// Last returns the last message ID returned by Next, or 0 if Next has not
// been called.
func (s *Sequence) Last() uint64 {
	return s.last
}

package protocol

import (
	"github.com/goccy/go-json"
)

// Type is the discriminator of a payload, sent as the body 'type' field.
type Type string

const (
	TypeInit        Type = "init"
	TypeInitOk      Type = "init_ok"
	TypeTopology    Type = "topology"
	TypeTopologyOk  Type = "topology_ok"
	TypeBroadcast   Type = "broadcast"
	TypeBroadcastOk Type = "broadcast_ok"
	TypeRead        Type = "read"
	TypeReadOk      Type = "read_ok"
	TypeGossip      Type = "gossip"
	TypeEcho        Type = "echo"
	TypeEchoOk      Type = "echo_ok"
	TypeGenerate    Type = "generate"
	TypeGenerateOk  Type = "generate_ok"
	TypeError       Type = "error"
)

// Payload is the type specific content of a message body.
//
// The set of payloads is closed: only the types in this package implement
// Payload.
type Payload interface {
	Type() Type

	payload()
}

// Init is the first message a node receives, containing its own ID and the
// IDs of every node in the cluster.
type Init struct {
	NodeID  string   `json:"node_id"`
	NodeIDs []string `json:"node_ids"`
}

func (Init) Type() Type { return TypeInit }

type InitOk struct{}

func (InitOk) Type() Type { return TypeInitOk }

// Topology maps each node ID to its neighbours.
type Topology struct {
	Topology map[string][]string `json:"topology"`
}

func (Topology) Type() Type { return TypeTopology }

type TopologyOk struct{}

func (TopologyOk) Type() Type { return TypeTopologyOk }

// Broadcast requests a node adds the value to the cluster wide set.
type Broadcast struct {
	Message uint64 `json:"message"`
}

func (Broadcast) Type() Type { return TypeBroadcast }

type BroadcastOk struct{}

func (BroadcastOk) Type() Type { return TypeBroadcastOk }

type Read struct{}

func (Read) Type() Type { return TypeRead }

// ReadOk contains all values known to a node.
type ReadOk struct {
	Messages []uint64 `json:"messages"`
}

func (ReadOk) Type() Type { return TypeReadOk }

// Gossip is sent between nodes with the values the sender believes the
// receiver is missing. Gossip is never replied to.
type Gossip struct {
	Seen []uint64 `json:"seen"`
}

func (Gossip) Type() Type { return TypeGossip }

type Echo struct {
	Echo string `json:"echo"`
}

func (Echo) Type() Type { return TypeEcho }

type EchoOk struct {
	Echo string `json:"echo"`
}

func (EchoOk) Type() Type { return TypeEchoOk }

type Generate struct{}

func (Generate) Type() Type { return TypeGenerate }

type GenerateOk struct {
	ID string `json:"id"`
}

func (GenerateOk) Type() Type { return TypeGenerateOk }

// ErrorCode is a Maelstrom error code.
type ErrorCode int

const (
	ErrorCodeTimeout            ErrorCode = 0
	ErrorCodeNodeNotFound       ErrorCode = 1
	ErrorCodeNotSupported       ErrorCode = 10
	ErrorCodeTemporarilyUnavail ErrorCode = 11
	ErrorCodeMalformedRequest   ErrorCode = 12
	ErrorCodeCrash              ErrorCode = 13
	ErrorCodeAbort              ErrorCode = 14
)

// Error is a reply indicating the request failed.
type Error struct {
	Code ErrorCode `json:"code"`
	Text string    `json:"text,omitempty"`
}

func (Error) Type() Type { return TypeError }

func (Init) payload()        {}
func (InitOk) payload()      {}
func (Topology) payload()    {}
func (TopologyOk) payload()  {}
func (Broadcast) payload()   {}
func (BroadcastOk) payload() {}
func (Read) payload()        {}
func (ReadOk) payload()      {}
func (Gossip) payload()      {}
func (Echo) payload()        {}
func (EchoOk) payload()      {}
func (Generate) payload()    {}
func (GenerateOk) payload()  {}
func (Error) payload()       {}

// IsReply returns whether payloads of type t are replies to a request.
func IsReply(t Type) bool {
	switch t {
	case TypeInitOk, TypeTopologyOk, TypeBroadcastOk, TypeReadOk,
		TypeEchoOk, TypeGenerateOk, TypeError:
		return true
	default:
		return false
	}
}

var decoders = map[Type]func(b []byte) (Payload, error){
	TypeInit:        decodeAs[Init],
	TypeInitOk:      decodeAs[InitOk],
	TypeTopology:    decodeAs[Topology],
	TypeTopologyOk:  decodeAs[TopologyOk],
	TypeBroadcast:   decodeAs[Broadcast],
	TypeBroadcastOk: decodeAs[BroadcastOk],
	TypeRead:        decodeAs[Read],
	TypeReadOk:      decodeAs[ReadOk],
	TypeGossip:      decodeAs[Gossip],
	TypeEcho:        decodeAs[Echo],
	TypeEchoOk:      decodeAs[EchoOk],
	TypeGenerate:    decodeAs[Generate],
	TypeGenerateOk:  decodeAs[GenerateOk],
	TypeError:       decodeAs[Error],
}

func decodeAs[T Payload](b []byte) (Payload, error) {
	var p T
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return p, nil
}

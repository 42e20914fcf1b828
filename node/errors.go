package node

import (
	"fmt"
)

// ProtocolError indicates the peer or environment broke the protocol
// contract, such as the first message not being 'init'.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol: %s", e.Reason)
}

// ConstructionError indicates the node factory failed.
type ConstructionError struct {
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct node: %s", e.Err.Error())
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// HandlingError indicates the node failed to handle an event.
type HandlingError struct {
	Event Event
	Err   error
}

func (e *HandlingError) Error() string {
	return fmt.Sprintf("handle %s: %s", eventKind(e.Event), e.Err.Error())
}

func (e *HandlingError) Unwrap() error {
	return e.Err
}

package protocol

import "fmt"

// DecodingError indicates an input line could not be decoded, either because
// it is malformed JSON or contains an unrecognized payload type.
type DecodingError struct {
	Line string
	Err  error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decode: %s", e.Err.Error())
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// EncodingError indicates a message could not be encoded. This is a
// programming error rather than a runtime condition.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode: %s", e.Err.Error())
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

package resp

import "errors"

// ProtocolError signals malformed RESP2 input. It is fatal: the connection
// driver closes the connection rather than replying with an error frame.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return e.msg }

func newProtocolError(msg string) error { return &ProtocolError{msg: msg} }

// ErrNeedMore is returned by Parse when the buffered input does not
// yet contain a complete frame. The caller should read more bytes from the
// stream and retry; it is not an error condition.
var ErrNeedMore = errors.New("resp: need more bytes")

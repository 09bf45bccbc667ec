package store

import "errors"

// ErrWrongType is returned whenever a command targets a key that already
// holds a different Kind. The command layer maps it to the RESP error
// "WRONGTYPE Operation against a key holding the wrong kind of value".
var ErrWrongType = errors.New("WRONGTYPE Operation against a key holding the wrong kind of value")

// Stream entry-ID errors, reported with the exact text spec.md §4.5 and
// real Redis use for XADD.
var (
	ErrInvalidStreamID  = errors.New("ERR Invalid stream ID specified")
	ErrStreamIDNotZero  = errors.New("ERR The ID specified in XADD must be greater than 0-0")
	ErrStreamIDTooSmall = errors.New("ERR The ID specified in XADD is equal or smaller than the target stream top item")
)

package command

import (
	"errors"

	"github.com/calvinlu/redis-clone-go/internal/resp"
	"github.com/calvinlu/redis-clone-go/internal/store"
)

// Standard error texts reused across handlers; spec.md quotes these
// verbatim, and the original_source Python implementation's lpop/lrange
// error wording fixes the Open Question over "wrong number of arguments"
// vs. "not an integer" in favour of the latter for the LPOP count and
// LRANGE index parse failures. SET's PX value and BLPOP's timeout keep
// their own messages (errInvalidExpire, errTimeoutNotFloat).
const (
	errSyntax          = "ERR syntax error"
	errNotIntegerRange = "ERR value is not an integer or out of range"
	errInvalidExpire   = "ERR invalid expire time in 'set' command"
	errTimeoutNotFloat = "ERR timeout is not a float or out of range"
	errTimeoutNegative = "ERR timeout is negative"
)

// storeErrorReply translates a store-layer error into its RESP error
// value. Unrecognised errors are reported as a generic ERR to avoid ever
// panicking a connection on an internal bug.
func storeErrorReply(err error) resp.Value {
	switch {
	case errors.Is(err, store.ErrWrongType):
		return resp.Error(err.Error())
	case errors.Is(err, store.ErrInvalidStreamID):
		return resp.Error(err.Error())
	case errors.Is(err, store.ErrStreamIDNotZero):
		return resp.Error(err.Error())
	case errors.Is(err, store.ErrStreamIDTooSmall):
		return resp.Error(err.Error())
	default:
		return resp.Error("ERR " + err.Error())
	}
}

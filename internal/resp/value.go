// Package resp implements the RESP2 wire protocol: decoding command frames
// from a byte stream and encoding reply values back onto it.
package resp

// Kind identifies which RESP2 type a Value holds.
type Kind int

const (
	KindSimpleString Kind = iota
	KindError
	KindInteger
	KindBulkString
	KindNilBulk
	KindArray
	KindNilArray
)

// Value is the sum type every command reply and every decoded frame element
// is expressed in. Only one of the fields is meaningful, selected by Kind.
// NilBulk and NilArray are distinct zero-payload states from BulkString("")
// and Array(nil) respectively — GET on a missing key returns NilBulk, BLPOP
// on timeout returns NilArray.
type Value struct {
	Kind  Kind
	Str   string  // SimpleString text, or Error message
	Int   int64   // Integer
	Bulk  []byte  // BulkString payload (may be empty, never nil when Kind == KindBulkString)
	Array []Value // Array elements (may be empty, never nil when Kind == KindArray)
}

func SimpleString(text string) Value { return Value{Kind: KindSimpleString, Str: text} }

func Error(message string) Value { return Value{Kind: KindError, Str: message} }

func Integer(i int64) Value { return Value{Kind: KindInteger, Int: i} }

func BulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: KindBulkString, Bulk: b}
}

func BulkStringFromString(s string) Value { return Value{Kind: KindBulkString, Bulk: []byte(s)} }

func NilBulk() Value { return Value{Kind: KindNilBulk} }

func Array(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Array: elems}
}

func NilArray() Value { return Value{Kind: KindNilArray} }

// Equal reports whether two values are structurally identical, distinguishing
// nil sentinels from their empty non-nil counterparts.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindSimpleString, KindError:
		return a.Str == b.Str
	case KindInteger:
		return a.Int == b.Int
	case KindBulkString:
		return string(a.Bulk) == string(b.Bulk)
	case KindNilBulk, KindNilArray:
		return true
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

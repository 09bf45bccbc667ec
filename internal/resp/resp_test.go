package resp

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeToBytes(t *testing.T, v Value) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, Encode(w, v))
	require.NoError(t, w.Flush())
	return buf.Bytes()
}

func TestEncodeExactForms(t *testing.T) {
	assert.Equal(t, "+OK\r\n", string(encodeToBytes(t, SimpleString("OK"))))
	assert.Equal(t, "-ERR boom\r\n", string(encodeToBytes(t, Error("ERR boom"))))
	assert.Equal(t, ":42\r\n", string(encodeToBytes(t, Integer(42))))
	assert.Equal(t, "$3\r\nbar\r\n", string(encodeToBytes(t, BulkStringFromString("bar"))))
	assert.Equal(t, "$-1\r\n", string(encodeToBytes(t, NilBulk())))
	assert.Equal(t, "*-1\r\n", string(encodeToBytes(t, NilArray())))
	assert.Equal(t, "*0\r\n", string(encodeToBytes(t, Array(nil))))
	assert.Equal(t,
		"*3\r\n$1\r\na\r\n$1\r\nb\r\n$1\r\nc\r\n",
		string(encodeToBytes(t, Array([]Value{
			BulkStringFromString("a"), BulkStringFromString("b"), BulkStringFromString("c"),
		}))),
	)
}

func TestEncodeDistinguishesNilFromEmpty(t *testing.T) {
	nilBulk := encodeToBytes(t, NilBulk())
	emptyBulk := encodeToBytes(t, BulkStringFromString(""))
	assert.NotEqual(t, string(nilBulk), string(emptyBulk))

	nilArr := encodeToBytes(t, NilArray())
	emptyArr := encodeToBytes(t, Array(nil))
	assert.NotEqual(t, string(nilArr), string(emptyArr))
}

func roundTrip(t *testing.T, v Value) {
	t.Helper()
	encoded := encodeToBytes(t, v)
	decoded, n, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.True(t, Equal(v, decoded), "expected %+v, got %+v", v, decoded)
}

func TestFramerRoundTrips(t *testing.T) {
	cases := []Value{
		SimpleString("PONG"),
		Error("WRONGTYPE Operation against a key holding the wrong kind of value"),
		Integer(0),
		Integer(-7),
		BulkStringFromString(""),
		BulkString([]byte{0x00, 0xFF, '\r', '\n', 'a'}),
		NilBulk(),
		NilArray(),
		Array(nil),
		Array([]Value{BulkStringFromString("q"), BulkStringFromString("hello")}),
	}
	for _, v := range cases {
		roundTrip(t, v)
	}
}

func TestParserCompletenessPrefix(t *testing.T) {
	full := []byte("*2\r\n$4\r\nLLEN\r\n$4\r\nlist\r\n")
	for i := 0; i < len(full); i++ {
		prefix := full[:i]
		_, _, err := Parse(prefix)
		assert.ErrorIs(t, err, ErrNeedMore, "prefix length %d should need more bytes", i)
	}
	v, n, err := Parse(full)
	require.NoError(t, err)
	assert.Equal(t, len(full), n)
	assert.Equal(t, KindArray, v.Kind)
}

func TestParserLeavesTailUntouched(t *testing.T) {
	frame := []byte("*1\r\n$4\r\nPING\r\n")
	tail := []byte("*1\r\n$4\r\nPING\r\n")
	buf := append(append([]byte{}, frame...), tail...)

	_, n, err := Parse(buf)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, string(tail), string(buf[n:]))
}

func TestParseRejectsMalformedInput(t *testing.T) {
	_, _, err := Parse([]byte("@nope\r\n"))
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)

	_, _, err = Parse([]byte("$abc\r\nxx\r\n"))
	require.ErrorAs(t, err, &protoErr)

	_, _, err = Parse([]byte("$-2\r\n"))
	require.ErrorAs(t, err, &protoErr)
}

func TestDecoderReadCommand(t *testing.T) {
	r := bytes.NewReader([]byte("*2\r\n$4\r\nECHO\r\n$2\r\nhi\r\n"))
	d := NewDecoder(r)
	args, err := d.ReadCommand()
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, "ECHO", string(args[0]))
	assert.Equal(t, "hi", string(args[1]))
}

func TestDecoderReadCommandMultipleFrames(t *testing.T) {
	r := bytes.NewReader([]byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))
	d := NewDecoder(r)
	for i := 0; i < 2; i++ {
		args, err := d.ReadCommand()
		require.NoError(t, err)
		require.Len(t, args, 1)
		assert.Equal(t, "PING", string(args[0]))
	}
	_, err := d.ReadCommand()
	assert.ErrorIs(t, err, io.EOF)
}

func TestDecoderReadCommandAcrossShortReads(t *testing.T) {
	full := "*2\r\n$3\r\nGET\r\n$3\r\nfoo\r\n"
	d := NewDecoder(&slowReader{data: []byte(full), chunk: 3})
	args, err := d.ReadCommand()
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, "GET", string(args[0]))
	assert.Equal(t, "foo", string(args[1]))
}

// slowReader dribbles out data a few bytes at a time to exercise the
// Decoder's incremental-fill path.
type slowReader struct {
	data  []byte
	chunk int
	pos   int
}

func (s *slowReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := s.chunk
	if n > len(p) {
		n = len(p)
	}
	if s.pos+n > len(s.data) {
		n = len(s.data) - s.pos
	}
	copy(p, s.data[s.pos:s.pos+n])
	s.pos += n
	return n, nil
}

func TestDecoderProtocolErrorMidFrame(t *testing.T) {
	r := bytes.NewReader([]byte("*2\r\n$4\r\nECHO\r\n"))
	d := NewDecoder(r)
	_, err := d.ReadCommand()
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
}

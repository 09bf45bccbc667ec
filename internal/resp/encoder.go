package resp

import (
	"bufio"
	"strconv"
)

// Encode writes v to w in RESP2 wire format. The caller is responsible for
// flushing w.
func Encode(w *bufio.Writer, v Value) error {
	switch v.Kind {
	case KindSimpleString:
		return writeLine(w, '+', v.Str)
	case KindError:
		return writeLine(w, '-', v.Str)
	case KindInteger:
		return writeLine(w, ':', strconv.FormatInt(v.Int, 10))
	case KindBulkString:
		if err := writeLine(w, '$', strconv.Itoa(len(v.Bulk))); err != nil {
			return err
		}
		if _, err := w.Write(v.Bulk); err != nil {
			return err
		}
		_, err := w.WriteString("\r\n")
		return err
	case KindNilBulk:
		_, err := w.WriteString("$-1\r\n")
		return err
	case KindNilArray:
		_, err := w.WriteString("*-1\r\n")
		return err
	case KindArray:
		if err := writeLine(w, '*', strconv.Itoa(len(v.Array))); err != nil {
			return err
		}
		for _, elem := range v.Array {
			if err := Encode(w, elem); err != nil {
				return err
			}
		}
		return nil
	default:
		return newProtocolError("resp: unsupported value kind")
	}
}

func writeLine(w *bufio.Writer, tag byte, text string) error {
	if err := w.WriteByte(tag); err != nil {
		return err
	}
	if _, err := w.WriteString(text); err != nil {
		return err
	}
	_, err := w.WriteString("\r\n")
	return err
}

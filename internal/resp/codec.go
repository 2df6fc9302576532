package resp

import (
	"errors"
	"strconv"
)

// ErrProtocol is returned by Decode when the buffer's leading byte is not
// a recognized frame tag, or a length/prefix field does not parse. The
// caller must report the error to the client and close the connection —
// decode errors are not something a retry on more bytes can fix.
var ErrProtocol = errors.New("resp: protocol error")

// Decode attempts to parse one complete frame from the front of buf. If
// buf does not yet hold a complete frame, it returns (nil, 0, nil) and
// consumes nothing — callers append more bytes and retry. A non-nil
// error means the bytes already present are malformed.
func Decode(buf []byte) (*Frame, int, error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}
	f, n, ok, err := decodeAt(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, nil
	}
	return f, n, nil
}

// decodeAt parses one frame starting at pos. ok is false when buf[pos:]
// does not yet contain a complete frame (caller should wait for more
// bytes); in that case n and f are meaningless and no partial state is
// retained anywhere.
func decodeAt(buf []byte, pos int) (f *Frame, next int, ok bool, err error) {
	if pos >= len(buf) {
		return nil, pos, false, nil
	}
	tag := buf[pos]
	switch tag {
	case '+', '-', ':':
		line, n, found := readLine(buf, pos+1)
		if !found {
			return nil, pos, false, nil
		}
		switch tag {
		case '+':
			fr := Simple(string(line))
			return &fr, n, true, nil
		case '-':
			fr := Err(string(line))
			return &fr, n, true, nil
		default: // ':'
			v, perr := strconv.ParseInt(string(line), 10, 64)
			if perr != nil {
				return nil, pos, false, ErrProtocol
			}
			fr := Int(v)
			return &fr, n, true, nil
		}
	case '$':
		line, n, found := readLine(buf, pos+1)
		if !found {
			return nil, pos, false, nil
		}
		length, perr := strconv.Atoi(string(line))
		if perr != nil {
			return nil, pos, false, ErrProtocol
		}
		if length < 0 {
			fr := NullBulk()
			return &fr, n, true, nil
		}
		end := n + length
		if end+2 > len(buf) {
			return nil, pos, false, nil
		}
		if buf[end] != '\r' || buf[end+1] != '\n' {
			return nil, pos, false, ErrProtocol
		}
		data := make([]byte, length)
		copy(data, buf[n:end])
		fr := Bulk(data)
		return &fr, end + 2, true, nil
	case '*':
		line, n, found := readLine(buf, pos+1)
		if !found {
			return nil, pos, false, nil
		}
		count, perr := strconv.Atoi(string(line))
		if perr != nil {
			return nil, pos, false, ErrProtocol
		}
		if count < 0 {
			fr := NullArr()
			return &fr, n, true, nil
		}
		items := make([]Frame, 0, count)
		cur := n
		for i := 0; i < count; i++ {
			item, next, ok, ierr := decodeAt(buf, cur)
			if ierr != nil {
				return nil, pos, false, ierr
			}
			if !ok {
				return nil, pos, false, nil
			}
			items = append(items, *item)
			cur = next
		}
		fr := Arr(items)
		return &fr, cur, true, nil
	default:
		return nil, pos, false, ErrProtocol
	}
}

// readLine returns buf[from:crlf), the index right after the CRLF, and
// whether a CRLF was found at or after from.
func readLine(buf []byte, from int) ([]byte, int, bool) {
	for i := from; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return buf[from:i], i + 2, true
		}
	}
	return nil, from, false
}

// Encode appends the wire representation of f to dst and returns the
// extended slice. Arrays do not emit a trailing CRLF of their own; each
// inner frame supplies its own terminator, matching the RESP grammar.
func Encode(dst []byte, f Frame) []byte {
	switch f.Kind {
	case SimpleString:
		dst = append(dst, '+')
		dst = append(dst, f.Str...)
		return append(dst, '\r', '\n')
	case Error:
		dst = append(dst, '-')
		dst = append(dst, f.ErrMsg...)
		return append(dst, '\r', '\n')
	case Integer:
		dst = append(dst, ':')
		dst = strconv.AppendInt(dst, f.Int, 10)
		return append(dst, '\r', '\n')
	case BulkString:
		dst = append(dst, '$')
		if f.BulkNull {
			dst = append(dst, '-', '1')
			return append(dst, '\r', '\n')
		}
		dst = strconv.AppendInt(dst, int64(len(f.Bulk)), 10)
		dst = append(dst, '\r', '\n')
		dst = append(dst, f.Bulk...)
		return append(dst, '\r', '\n')
	case Array:
		dst = append(dst, '*')
		if f.ArrayNull {
			dst = append(dst, '-', '1')
			return append(dst, '\r', '\n')
		}
		dst = strconv.AppendInt(dst, int64(len(f.Items)), 10)
		dst = append(dst, '\r', '\n')
		for _, item := range f.Items {
			dst = Encode(dst, item)
		}
		return dst
	default:
		return dst
	}
}

package server

import (
	"bytes"
	"fmt"
	"net"

	"github.com/mambisi/escanor/internal/resp"
)

// readCommand pulls the next command's tokens off conn. buf is the
// connection's carry-over buffer across calls (data read but not yet
// consumed by a complete frame/line). A leading byte of '+', '-', ':',
// '$', or '*' selects RESP array framing (internal/resp.Decode); any
// other leading byte selects the text tokenizer, reading up to the
// next newline (spec.md §4.2). maxPacket bounds how large an
// unconsumed buffer may grow before the connection is rejected as
// abusive.
func readCommand(conn net.Conn, buf *[]byte, scratch []byte, maxPacket int) ([]string, error) {
	for {
		if tokens, consumed, ok, err := tryParse(*buf); err != nil {
			return nil, err
		} else if ok {
			*buf = (*buf)[consumed:]
			return tokens, nil
		}

		if len(*buf) > maxPacket {
			return nil, fmt.Errorf("server: command exceeds max packet size (%d bytes)", maxPacket)
		}

		n, err := conn.Read(scratch)
		if n > 0 {
			*buf = append(*buf, scratch[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

func tryParse(buf []byte) ([]string, int, bool, error) {
	if len(buf) == 0 {
		return nil, 0, false, nil
	}
	switch buf[0] {
	case '+', '-', ':', '$', '*':
		f, n, err := resp.Decode(buf)
		if err != nil {
			return nil, 0, false, err
		}
		if f == nil {
			return nil, 0, false, nil
		}
		return resp.TokensFromFrame(*f), n, true, nil
	default:
		idx := bytes.IndexByte(buf, '\n')
		if idx < 0 {
			return nil, 0, false, nil
		}
		line := string(buf[:idx+1])
		return resp.TokensFromText(line), idx + 1, true, nil
	}
}

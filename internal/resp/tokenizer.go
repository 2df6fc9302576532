package resp

import "strings"

// TokensFromFrame extracts the ordered argv from a RESP array frame of
// bulk strings. Any other frame shape yields no tokens — the syntax
// analyzer treats that as a syntax error, since a legal command frame is
// always an all-bulk-string array.
func TokensFromFrame(f Frame) []string {
	if f.Kind != Array || f.ArrayNull {
		return nil
	}
	tokens := make([]string, 0, len(f.Items))
	for _, item := range f.Items {
		if item.Kind != BulkString || item.BulkNull {
			return nil
		}
		tokens = append(tokens, string(item.Bulk))
	}
	return tokens
}

// TokensFromText tokenizes a raw command line: tokens are delimited by
// spaces, a backtick opens a quoted segment that may itself contain
// spaces and is closed by a backtick at the end of the same token, and
// consecutive spaces outside a quoted segment collapse. A trailing CRLF
// is stripped first if present.
func TokensFromText(line string) []string {
	line = strings.TrimSuffix(line, "\r\n")
	line = strings.TrimSuffix(line, "\n")

	var tokens []string
	var cur strings.Builder
	inQuote := false
	have := false

	flush := func() {
		if have {
			tokens = append(tokens, cur.String())
			cur.Reset()
			have = false
		}
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '`' && !inQuote && !have:
			inQuote = true
			have = true
		case c == '`' && inQuote:
			inQuote = false
		case c == ' ' && !inQuote:
			flush()
		default:
			cur.WriteByte(c)
			have = true
		}
	}
	flush()
	return tokens
}

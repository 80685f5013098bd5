package resp

import "strconv"

// AppendValue appends the RESP wire encoding of v to buf and returns the
// extended slice, following the grammar of §4.1: Simple "+text\r\n", Error
// "-text\r\n", Integer ":n\r\n", BulkString "$len\r\n<bytes>\r\n" (or
// "$-1\r\n" when null), Array "*count\r\n<item>..." (or "*-1\r\n" when null).
func AppendValue(buf []byte, v Value) []byte {
	switch v.Kind {
	case SimpleString:
		buf = append(buf, '+')
		buf = append(buf, v.Str...)
		return append(buf, '\r', '\n')

	case Error:
		buf = append(buf, '-')
		buf = append(buf, v.Str...)
		return append(buf, '\r', '\n')

	case Integer:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, v.Int, 10)
		return append(buf, '\r', '\n')

	case BulkString:
		if v.Null {
			return append(buf, '$', '-', '1', '\r', '\n')
		}
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(v.Bulk)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, v.Bulk...)
		return append(buf, '\r', '\n')

	case Array:
		if v.Null {
			return append(buf, '*', '-', '1', '\r', '\n')
		}
		buf = append(buf, '*')
		buf = strconv.AppendInt(buf, int64(len(v.Items)), 10)
		buf = append(buf, '\r', '\n')
		for _, item := range v.Items {
			buf = AppendValue(buf, item)
		}
		return buf

	default:
		return buf
	}
}

// Encode returns the RESP wire encoding of v as a freshly allocated slice.
func Encode(v Value) []byte {
	return AppendValue(nil, v)
}

// AppendCommand appends a client command to buf: an Array of BulkStrings
// whose first element is the keyword and the rest are args, per §4.1 ("A
// Command serializes as an Array of BulkStrings").
func AppendCommand(buf []byte, keyword string, args ...[]byte) []byte {
	buf = append(buf, '*')
	buf = strconv.AppendInt(buf, int64(1+len(args)), 10)
	buf = append(buf, '\r', '\n')

	buf = append(buf, '$')
	buf = strconv.AppendInt(buf, int64(len(keyword)), 10)
	buf = append(buf, '\r', '\n')
	buf = append(buf, keyword...)
	buf = append(buf, '\r', '\n')

	for _, arg := range args {
		buf = append(buf, '$')
		buf = strconv.AppendInt(buf, int64(len(arg)), 10)
		buf = append(buf, '\r', '\n')
		buf = append(buf, arg...)
		buf = append(buf, '\r', '\n')
	}
	return buf
}

// EncodeCommand returns the wire encoding of a command as a freshly
// allocated slice.
func EncodeCommand(keyword string, args ...[]byte) []byte {
	return AppendCommand(nil, keyword, args...)
}

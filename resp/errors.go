package resp

import "errors"

// ErrNeedMore is returned by Decoder.Decode when buf holds a prefix of a
// value but not the whole thing yet. The caller should read more bytes from
// the transport and call Decode again with the extended buffer; the decoder
// keeps no memory of the previous attempt, so the same buf (extended) must
// be resubmitted in full.
var ErrNeedMore = errors.New("resp: need more bytes")

// MalformedError reports unrecoverable RESP framing violations: a bad
// prefix byte, a non-numeric length, a missing CRLF, a negative length other
// than -1, or a bulk body shorter than announced. Per §4.1, this is fatal to
// the connection — unlike ErrNeedMore, retrying will not help.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string { return "resp: malformed: " + e.Reason }

func malformed(reason string) error { return &MalformedError{Reason: reason} }

// ErrMaxDepth is returned when an Array nests deeper than the decoder's
// configured bound, guarding against adversarial nesting.
var ErrMaxDepth = malformed("array nesting exceeds max depth")

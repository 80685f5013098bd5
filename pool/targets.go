package pool

// targetList is the Pool's ordered candidate-address list with a
// round-robin cursor (§4.5 "Round-robin target rotation").
type targetList struct {
	addrs  []string
	cursor int
}

func (t *targetList) update(addrs []string) {
	t.addrs = append([]string(nil), addrs...)
	t.cursor = 0
}

// peek reports the address next_target() would return, without advancing.
func (t *targetList) peek() (string, bool) {
	if len(t.addrs) == 0 {
		return "", false
	}
	return t.addrs[t.cursor%len(t.addrs)], true
}

// advance moves the cursor forward one slot, wrapping.
func (t *targetList) advance() {
	if len(t.addrs) == 0 {
		return
	}
	t.cursor = (t.cursor + 1) % len(t.addrs)
}

// snapshot returns an immutable copy of the current address list and the
// index peek() would currently return, for a background dial retry loop to
// rotate through independently of later target-list updates.
func (t *targetList) snapshot() ([]string, int) {
	addrs := append([]string(nil), t.addrs...)
	idx := 0
	if len(addrs) > 0 {
		idx = t.cursor % len(addrs)
	}
	return addrs, idx
}

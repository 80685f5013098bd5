package pool

// Discovery is an asynchronous source of candidate address-set updates
// (§4.5 "Service discovery"), grounded on engineredis's Sentinel-backed
// address resolution reshaped as a plain channel: this library does not
// implement Sentinel itself (out of scope, §1), only the consumption side.
type Discovery interface {
	// Updates returns a channel of full address-list snapshots. The channel
	// is closed when the discovery source is done, which the Pool treats as
	// a signal to begin self-close (§4.5).
	Updates() <-chan []string
}

// Static is a Discovery that yields a single fixed address list and then
// closes its channel, so a Pool given it adopts that list and then begins
// self-close. A Pool constructed without a Discovery does not use Static: it
// seeds its targets from Config.Addresses and stays up until Close.
type Static struct {
	addrs []string
}

// NewStatic returns a Discovery that immediately yields addrs once.
func NewStatic(addrs []string) *Static {
	return &Static{addrs: addrs}
}

func (s *Static) Updates() <-chan []string {
	ch := make(chan []string, 1)
	ch <- s.addrs
	close(ch)
	return ch
}

package chrono

import "time"

var kst = time.FixedZone("KST", 9*60*60)

// KST returns the [*time.Location] the education office portals operate in.
func KST() *time.Location {
	return kst
}

// API is the interface that anything depending on the system clock should use.
//
// note: fault injection point
type API interface {
	Now() time.Time
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

// Now returns the current time in KST.
func (StandardImpl) Now() time.Time {
	return time.Now().In(kst)
}

package timestamp

import (
	"time"
)

// Timestamp is a unix timestamp with nanosecond precision,
// used for all audit stamping across the module
type Timestamp uint64

func NewTimestampFromUnix(uts int64) Timestamp {
	return Timestamp(uts)
}

func Now() Timestamp {
	return Timestamp(time.Now().UnixNano())
}

func (ts Timestamp) String() string {
	return ts.Time().String()
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts/1e9), int64(ts%1e9))
}

package timer

import "time"

// base is the reference point of the runtime's own monotonic reading
var base = time.Now()

func fallbackTicks() int64 {
	return int64(time.Since(base))
}

func fallbackTicksToMillis(d int64) float64 {
	return float64(d) / float64(time.Millisecond)
}

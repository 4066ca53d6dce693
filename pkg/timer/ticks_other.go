//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package timer

func ticks() int64 {
	return fallbackTicks()
}

func ticksToMillis(d int64) float64 {
	return fallbackTicksToMillis(d)
}

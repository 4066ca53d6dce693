//go:build windows

package timer

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = kernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = kernel32.NewProc("QueryPerformanceFrequency")

	// counts per millisecond, read once per process
	qpcFreq     float64
	qpcFreqOnce sync.Once
)

func ticks() int64 {
	qpcFreqOnce.Do(initFrequency)
	if qpcFreq == 0 {
		return fallbackTicks()
	}

	// QueryPerformanceCounter cannot fail on systems the Go runtime supports
	var counter int64
	_, _, _ = procQueryPerformanceCounter.Call(uintptr(unsafe.Pointer(&counter)))

	return counter
}

func ticksToMillis(d int64) float64 {
	if qpcFreq == 0 {
		return fallbackTicksToMillis(d)
	}

	return float64(d) / qpcFreq
}

func initFrequency() {
	var freq int64
	if r, _, _ := procQueryPerformanceFrequency.Call(uintptr(unsafe.Pointer(&freq))); r == 0 || freq <= 0 {
		return
	}
	qpcFreq = float64(freq) / 1000
}

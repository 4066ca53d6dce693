// Package gcprof measures garbage collection pauses and reports every measurement to a single callback.
//
// A Profiler registers a prologue and an epilogue hook with a Collector. The prologue opens a Measurement and starts
// the collector's clock, the epilogue completes it and posts it to a Runner. The callback is never called from inside
// a hook: it runs later, on the Runner's serialized task context, with the measurement's fields as arguments
//
//	startTime (epoch seconds), durationMillis, collectorType, collectorFlags
//
// Measurements are delivered in the order the collections happened. An error returned by the callback reaches the
// Runner's error handler wrapped in ErrCallback and does not affect later deliveries.
//
// LoadProfiler and LoadAny operate on a process-wide default session watching the Go runtime of the current process
// and delivering on a background loop.
package gcprof

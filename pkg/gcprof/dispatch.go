package gcprof

import "github.com/maratig/gcpause/api/object"

type (
	deliverFunc func(startTime int64, durationMillis float64, typ object.Type, flags object.Flags) error

	// dispatchQueue moves completed measurements out of the collector's hook into the runner's task context
	dispatchQueue struct {
		runner  Runner
		deliver deliverFunc
	}
)

func newDispatchQueue(runner Runner, deliver deliverFunc) *dispatchQueue {
	return &dispatchQueue{runner: runner, deliver: deliver}
}

// enqueue takes ownership of rec. The caller must not touch it afterwards
func (q *dispatchQueue) enqueue(rec *object.Measurement) {
	q.runner.Post(func() error {
		startTime, duration, typ, flags := rec.StartTime, rec.DurationMillis, rec.Type, rec.Flags
		rec = nil

		return q.deliver(startTime, duration, typ, flags)
	})
}

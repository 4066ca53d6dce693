package gcprof

import (
	"go.uber.org/zap"

	"github.com/maratig/gcpause/api/object"
)

// before is the prologue hook. It opens a new measurement
func (p *Profiler) before() {
	p.mx.Lock()
	defer p.mx.Unlock()

	if p.closed {
		return
	}
	if p.inflight != nil {
		p.dropped.Add(1)
		p.log.Warn("collection started while another one is being timed, dropping the previous measurement")
	}

	p.inflight = &object.Measurement{StartTime: p.clock.Now().Unix()}
	p.clock.Start()
}

// after is the epilogue hook. It completes the in-flight measurement and hands it over to the dispatch queue
func (p *Profiler) after(typ object.Type, flags object.Flags) {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return
	}
	rec := p.inflight
	p.inflight = nil
	if rec != nil {
		rec.DurationMillis = p.clock.ElapsedMillis()
		rec.Type = typ
		rec.Flags = flags
	}
	p.mx.Unlock()

	if rec == nil {
		p.ignored.Add(1)
		p.log.Debug("collection ended without a start, ignoring", zap.Stringer("type", typ))
		return
	}

	p.queue.enqueue(rec)
}

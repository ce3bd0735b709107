package selection

import (
	"context"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"
)

const targetsAtomName = "TARGETS"

// Policy bounds the wait for a SelectionNotify reply
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy polls five times, 100ms apart
func DefaultPolicy() Policy {
	return Policy{Attempts: 5, Delay: 100 * time.Millisecond}
}

// normalize fills in defaults. The zero Policy means DefaultPolicy; a
// zero Delay with Attempts set polls back to back.
func (p Policy) normalize() Policy {
	d := DefaultPolicy()
	if p == (Policy{}) {
		return d
	}
	if p.Attempts <= 0 {
		p.Attempts = d.Attempts
	}
	if p.Delay < 0 {
		p.Delay = d.Delay
	}
	return p
}

// TargetsRequester asks a selection owner for its TARGETS list on behalf
// of the proxy window and waits a bounded time for the owner's answer.
type TargetsRequester struct {
	conn   Conn
	atoms  *AtomCodec
	policy Policy
	logger *zap.Logger

	sleep func(ctx context.Context, d time.Duration) bool
}

// NewTargetsRequester creates a TargetsRequester
func NewTargetsRequester(conn Conn, atoms *AtomCodec, policy Policy, logger *zap.Logger) *TargetsRequester {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TargetsRequester{
		conn:   conn,
		atoms:  atoms,
		policy: policy.normalize(),
		logger: logger,
		sleep:  sleepContext,
	}
}

// RequestTargets converts selection to TARGETS into the proxy window
// property named after the selection itself. It reports whether a matching
// SelectionNotify arrived within the policy budget; the caller then reads
// the property. Events that do not match are dropped.
func (r *TargetsRequester) RequestTargets(ctx context.Context, selection xproto.Atom, owner xproto.Window) bool {
	targets, err := r.atoms.NameToAtom(targetsAtomName)
	if err != nil {
		r.logger.Warn("Cannot resolve TARGETS atom", zap.Error(err))
		return false
	}

	if n := r.discardPending(); n > 0 {
		r.logger.Debug("Dropped events queued before the request", zap.Int("events", n))
	}

	proxy := r.conn.ProxyWindow()
	r.conn.ConvertSelection(proxy, selection, targets, selection, xproto.TimeCurrentTime)
	if err := r.conn.Flush(); err != nil {
		r.logger.Warn("Flush after convert selection failed", zap.Error(err))
		return false
	}

	r.logger.Debug("Requested targets",
		zap.Uint32("selection", uint32(selection)),
		zap.Uint32("owner", uint32(owner)),
		zap.Uint32("proxy", uint32(proxy)))

	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		if r.drain(selection, targets) {
			r.logger.Debug("Targets notification received", zap.Int("attempt", attempt))
			return true
		}
		if !r.sleep(ctx, r.policy.Delay) {
			r.logger.Debug("Targets wait cancelled", zap.Error(ctx.Err()))
			return false
		}
	}

	r.logger.Debug("Owner did not answer TARGETS request",
		zap.Uint32("owner", uint32(owner)),
		zap.Int("attempts", r.policy.Attempts),
		zap.Duration("delay", r.policy.Delay))
	return false
}

// discardPending empties the event queue so an answer to an earlier,
// timed-out request for the same selection cannot match this one
func (r *TargetsRequester) discardPending() int {
	n := 0
	for {
		ev, err := r.conn.PollForEvent()
		if err != nil {
			continue
		}
		if ev == nil {
			return n
		}
		n++
	}
}

// drain consumes queued events until a match is found or the queue is empty
func (r *TargetsRequester) drain(selection, targets xproto.Atom) bool {
	for {
		ev, err := r.conn.PollForEvent()
		if err != nil {
			r.logger.Debug("X error while waiting for targets", zap.Error(err))
			continue
		}
		if ev == nil {
			return false
		}
		if isTargetsNotify(ev, selection, targets) {
			return true
		}
		r.logger.Debug("Discarding event", zap.String("event", ev.String()))
	}
}

func isTargetsNotify(ev interface{}, selection, targets xproto.Atom) bool {
	var notify xproto.SelectionNotifyEvent
	switch e := ev.(type) {
	case xproto.SelectionNotifyEvent:
		notify = e
	case *xproto.SelectionNotifyEvent:
		notify = *e
	default:
		return false
	}
	return notify.Property == selection && notify.Target == targets
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

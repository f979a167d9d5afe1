package dispatcher

import "github.com/olabjorsne/nrc-sub000/log"

// options holds configuration resolved at New time.
type options struct {
	logger        log.Logger
	inboxCapacity int
	onOverload    func(pending int)
}

// Option configures a Dispatcher.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger installs a logger; defaults to log.Global() if not set.
func WithLogger(l log.Logger) Option {
	return optionFunc(func(o *options) { o.logger = l })
}

// WithInboxCapacityHint pre-sizes the inbox heap's backing array. Never a
// hard cap — the inbox grows as needed. The same value is the threshold
// used by WithOnOverload.
func WithInboxCapacityHint(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.inboxCapacity = n
		}
	})
}

// WithOnOverload installs a callback invoked whenever, after the worker
// pops an entry, more entries than the inbox capacity hint are still
// pending; it receives that pending count. Callers can observe a flow
// that is falling behind without the worker itself enforcing a cap.
func WithOnOverload(fn func(pending int)) Option {
	return optionFunc(func(o *options) { o.onOverload = fn })
}

func resolveOptions(opts []Option) *options {
	o := &options{
		logger:        log.Global(),
		inboxCapacity: 64,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(o)
	}
	return o
}

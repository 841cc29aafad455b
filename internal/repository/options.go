package repository

import "go.uber.org/zap"

type options struct {
	locker RankLocker
	logger *zap.Logger
	signUp ConnectionSignUp
}

type Option func(*options)

// WithRankLocker sets the lock taken around rank assignment. The default is
// an in-process locker.
func WithRankLocker(l RankLocker) Option {
	return func(o *options) {
		if l != nil {
			o.locker = l
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConnectionSignUp sets the sign-up policy of a UsersConnectionRepository.
func WithConnectionSignUp(s ConnectionSignUp) Option {
	return func(o *options) {
		o.signUp = s
	}
}

func applyOptions(opts []Option) options {
	o := options{
		locker: NewMemoryRankLocker(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

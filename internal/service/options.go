package service

import (
	"time"

	"github.com/google/uuid"
)

// Option configures the clock and ID source of a service
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

func newOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// Package state defines the values that cross the dispatcher boundary:
// event descriptors, the envelopes a job stream produces, and the stream
// contract itself.
package state

// Event describes a named unit of work and how its results should be shown.
// Two events are the same event iff their names are equal.
type Event interface {
	Name() string
	WantsProgress() bool
	WantsMessage() bool
	ErrorInfo() string
}

// Descriptor is the immutable Event implementation used throughout the repo.
type Descriptor struct {
	name      string
	progress  bool
	message   bool
	errorInfo string
}

// Option configures a Descriptor.
type Option func(*Descriptor)

// WithProgress marks the event as wanting the busy indicator while active.
func WithProgress() Option {
	return func(d *Descriptor) { d.progress = true }
}

// WithMessage marks the event's messages as eligible for display.
func WithMessage() Option {
	return func(d *Descriptor) { d.message = true }
}

// WithErrorInfo sets the text a producer uses when the event fails.
func WithErrorInfo(info string) Option {
	return func(d *Descriptor) { d.errorInfo = info }
}

// NewEvent creates a Descriptor named name.
func NewEvent(name string, opts ...Option) Descriptor {
	d := Descriptor{name: name}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) WantsProgress() bool { return d.progress }
func (d Descriptor) WantsMessage() bool  { return d.message }
func (d Descriptor) ErrorInfo() string   { return d.errorInfo }

func (d Descriptor) String() string { return d.name }

// Same reports whether a and b name the same event. Nil events are never
// the same as anything.
func Same(a, b Event) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Name() == b.Name()
}

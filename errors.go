package pulse

import "errors"

var (
	// ErrAlreadyBuilt is returned when Build is called twice on one Builder.
	ErrAlreadyBuilt = errors.New("registry already built")
	// ErrNilRegistry is returned when a component requires a registry and none was given.
	ErrNilRegistry = errors.New("nil registry")
	// ErrNilSink is returned when a Reporter is created without a sink.
	ErrNilSink = errors.New("nil sink")
)

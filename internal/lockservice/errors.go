package lockservice

import "errors"

var (
	// ErrMissingDependency is returned by New when a required collaborator is nil.
	ErrMissingDependency = errors.New("lockservice: missing dependency")

	// ErrNoCredentials is returned by Login when no email or password is configured.
	ErrNoCredentials = errors.New("lockservice: sesame credentials not configured")

	// ErrInvalidCommand is returned for an MQTT command that cannot be parsed.
	ErrInvalidCommand = errors.New("lockservice: invalid command")
)

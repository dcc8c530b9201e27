package introspect

import "errors"

var (
	ErrIntrospectionFailed = errors.New("schema introspection failed")
	ErrNoKeyspace          = errors.New("no keyspace configured")
)

package domain

import "errors"

// Error taxonomy (sentinels). Provider and schema errors are absorbed by
// the orchestrator; only ErrInvalidArgument ever reaches the HTTP layer.
var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrUpstreamStatus        = errors.New("upstream status")
	ErrEmptyCompletion       = errors.New("empty completion")
	ErrSchemaInvalid         = errors.New("schema invalid")
	ErrNotFound              = errors.New("not found")
)

package apperr

import "errors"

// Sentinel errors shared across the engine. Callers match them with
// errors.Is; raise sites wrap them via fmt.Errorf("%w: ...") to attach
// the offending id, path or status.
var (
	ErrNotFound          = errors.New("entry not found")
	ErrAmbiguousID       = errors.New("ambiguous entry id")
	ErrDuplicateID       = errors.New("duplicate entry id")
	ErrUnknownKind       = errors.New("unknown entry kind")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidReference  = errors.New("invalid reference")
	ErrUnknownEntry      = errors.New("reference to unknown entry")
	ErrMalformedMetadata = errors.New("malformed metadata block")
	ErrTemplateNotFound  = errors.New("template not found")
)

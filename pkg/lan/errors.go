package lan

import "errors"

var (
	// ErrNotEnvelope indicates a frame that is not a LAN envelope of the
	// expected kind.
	ErrNotEnvelope = errors.New("not a lan envelope")

	// ErrUnknownAnswerKind indicates an answer whose TinyId is a request.
	ErrUnknownAnswerKind = errors.New("unknown answer tiny id kind")
)

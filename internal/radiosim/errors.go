package radiosim

import "errors"

// ErrInjected is the default error of an injected failure.
var ErrInjected = errors.New("injected failure")

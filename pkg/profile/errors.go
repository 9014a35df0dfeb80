package profile

import "errors"

// ErrInsufficientData indicates a user has no computable interest vector
// yet. It is an expected condition, surfaced to the user as guidance to
// chat a bit more first.
var ErrInsufficientData = errors.New("not enough conversation history to build an interest profile")

package services

import "errors"

// ErrRetrievalUnavailable marks a failed embedding or vector-store call.
// The orchestration recovers from it by answering without textbook context,
// so it never surfaces to the user as a failed turn.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

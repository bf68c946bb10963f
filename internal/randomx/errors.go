package randomx

import "errors"

// ErrCancelled names the initialization-cancelled condition. NewContext,
// NewCache and NewDatasetRange do not wrap it: a build cancelled through
// the caller's context returns an error wrapping ctx.Err(). CalculateHash itself
// is infallible over a validly-initialized Context: the engine only
// fails during the one-time cache/dataset build, never while hashing.
var ErrCancelled = errors.New("randomx: initialization cancelled")

package cryptoops

// Kind enumerates the cryptographic-core error taxonomy. These are
// kinds, not sentinel type hierarchies — callers switch on Kind, never
// on the concrete error's identity.
type Kind int

const (
	// InvalidEncoding: bytes that do not canonically decode (scalar >= l,
	// non-canonical point, bad varint, truncated field).
	InvalidEncoding Kind = iota
	// CryptoCheckFailed: a signature, commitment, or zero-sum check failed.
	CryptoCheckFailed
	// KeyImageSubgroupInvalid: a key image failed the prime-order subgroup check.
	KeyImageSubgroupInvalid
)

// Error is the structured error type every cryptoops function returns.
// It never carries a stack trace or logs anything — logging is left to
// the caller.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is reports whether err is a *Error of the given kind, for callers that
// branch on error taxonomy with errors.Is-style code.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*Error)
	return ok && ce.Kind == kind
}

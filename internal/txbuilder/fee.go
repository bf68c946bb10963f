package txbuilder

// Fee estimation has no normative formula in the protocol: any fee at
// or above the validator's minimum is accepted, and wallets are free
// to quote whatever they like. This follows the conventional per-byte
// model: a fixed weight estimate scaled by priority.
const (
	feeBaseRatePerByte   = uint64(2000) // atomic units per estimated byte, at PriorityDefault
	feeBytesPerInput     = uint64(1500) // ring signature + key offsets dominate input weight
	feeBytesPerOutput    = uint64(180)  // commitment + range proof share + output body
	feeBytesFixedOverhead = uint64(500) // prefix trailer, BP+ fixed terms, extra
)

// priorityMultiplier scales the base rate; values mirror the ratios a
// four-tier fee menu typically uses (low undercuts the floor, priority
// pays a strong premium for same-block inclusion).
func priorityMultiplier(p Priority) uint64 {
	switch p {
	case PriorityLow:
		return 1
	case PriorityDefault:
		return 4
	case PriorityHigh:
		return 20
	case PriorityPriority:
		return 166
	default:
		return 4
	}
}

// FeeEstimate returns a fee quote for a transaction with the given
// shape at the requested priority. Callers needing an exact fee after
// the transaction is fully built should instead measure the encoded
// size and recompute; this is a pre-build estimate for UI display and
// input selection.
func FeeEstimate(numInputs, numOutputs, ringSize int, priority Priority) uint64 {
	if numInputs < 0 {
		numInputs = 0
	}
	if numOutputs < 0 {
		numOutputs = 0
	}
	ringWeight := feeBytesPerInput
	if ringSize > 1 {
		ringWeight += uint64(ringSize) * 64 // two 32-byte scalars per ring member (TCLSAG's SX/SY; a CLSAG carries one)
	}
	size := feeBytesFixedOverhead + uint64(numInputs)*ringWeight + uint64(numOutputs)*feeBytesPerOutput
	return size * feeBaseRatePerByte / 1000 * priorityMultiplier(priority)
}

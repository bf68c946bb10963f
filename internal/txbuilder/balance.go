package txbuilder

import "github.com/salvium/wallet-core/internal/cryptoops"

// pseudoOutMasks picks one blinding mask per input such that
// Σ pseudoOutMask = Σ outputMask, the zero-sum invariant a Pedersen
// balance check verifies. All but the last input's mask are random;
// the last is solved so the sum matches exactly.
func pseudoOutMasks(numInputs int, outputMaskSum cryptoops.Scalar) ([]cryptoops.Scalar, error) {
	masks := make([]cryptoops.Scalar, numInputs)
	running := cryptoops.ScalarZero()
	for i := 0; i < numInputs-1; i++ {
		m, err := randomScalar()
		if err != nil {
			return nil, err
		}
		masks[i] = m
		running = running.Add(m)
	}
	masks[numInputs-1] = outputMaskSum.Sub(running)
	return masks, nil
}

func sumMasks(masks []cryptoops.Scalar) cryptoops.Scalar {
	sum := cryptoops.ScalarZero()
	for _, m := range masks {
		sum = sum.Add(m)
	}
	return sum
}

func sumAmounts(amounts []uint64) (uint64, bool) {
	var total uint64
	for _, a := range amounts {
		next := total + a
		if next < total {
			return 0, false // overflow
		}
		total = next
	}
	return total, true
}

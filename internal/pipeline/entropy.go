package pipeline

import (
	"context"
	"math/rand/v2"
)

// LocalEntropy is the default Entropy implementation: it simulates a
// fair coin with math/rand/v2 rather than calling out to quantum
// hardware, mirroring the local fallback path in a Hadamard-gate RNG
// simulator. A future hardware-backed Entropy can satisfy the same
// interface without any pipeline changes.
type LocalEntropy struct{}

func (LocalEntropy) Draw(ctx context.Context, shots int) (ones, zeros int, err error) {
	if shots <= 0 {
		return 0, 0, nil
	}
	for i := 0; i < shots; i++ {
		select {
		case <-ctx.Done():
			return ones, zeros, ctx.Err()
		default:
		}
		if rand.IntN(2) == 1 {
			ones++
		} else {
			zeros++
		}
	}
	return ones, zeros, nil
}

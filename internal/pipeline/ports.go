package pipeline

import "context"

// Entropy is the injectable randomness seam used by the execution
// stage's anti-front-running jitter draw (the QUBO solver's
// simulated-annealing RNG is seeded from crypto/rand by
// newSeededRand, not from Entropy). The default implementation is a local
// coin-flip counter (math/rand/v2); a hardware QRNG backend can be
// swapped in without touching the pipeline.
type Entropy interface {
	// Draw performs `shots` independent fair coin flips and reports how
	// many came up heads ("ones") vs tails ("zeros").
	Draw(ctx context.Context, shots int) (ones, zeros int, err error)
}

// Receipt is the on-chain confirmation of a submitted rebalance
// transaction.
type Receipt struct {
	TxDigest string
	Accepted bool
}

// Submitter is the injectable seam over the chain RPC call that
// actually submits a built Plan as a transaction.
type Submitter interface {
	Submit(ctx context.Context, plan Plan) (Receipt, error)
}

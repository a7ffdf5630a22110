package atom

import (
	"math/rand/v2"

	"github.com/san-kum/atomsim/internal/ecs"
)

// RandomSource is the per-atom random stream. Each atom owns its stream so
// stochastic stages reproduce bit-for-bit regardless of how atoms are split
// across workers.
type RandomSource struct {
	Src  *rand.PCG
	Rand *rand.Rand
}

// NewRandomSource seeds a stream from the run seed and the entity ID.
func NewRandomSource(seed uint64, e ecs.Entity) RandomSource {
	src := rand.NewPCG(seed, uint64(e)*0x9e3779b97f4a7c15+1)
	return RandomSource{Src: src, Rand: rand.New(src)}
}

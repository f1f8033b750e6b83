package sim

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrorModel perturbs each pose component independently by
// coeff * N(0, 1) per application.
type ErrorModel struct {
	coeff float64
	dist  distuv.Normal
}

// NewErrorModel builds an error model seeded from the operating system's
// entropy source. Runs are intentionally not reproducible; use
// NewErrorModelWithSource for deterministic tests.
func NewErrorModel(coeff float64) *ErrorModel {
	return NewErrorModelWithSource(coeff, rand.NewPCG(entropySeed(), entropySeed()))
}

// NewErrorModelWithSource builds an error model drawing from the given
// random source.
func NewErrorModelWithSource(coeff float64, src rand.Source) *ErrorModel {
	return &ErrorModel{
		coeff: coeff,
		dist:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Perturb returns the state with independent Gaussian error added to x, y,
// and yaw. A zero coefficient returns the state exactly unchanged, consuming
// no entropy. Velocity is never touched by error injection.
func (m *ErrorModel) Perturb(s State) State {
	if m.coeff == 0 {
		return s
	}
	s.X += m.coeff * m.dist.Rand()
	s.Y += m.coeff * m.dist.Rand()
	s.Yaw += m.coeff * m.dist.Rand()
	return s
}

// Coeff returns the configured error coefficient.
func (m *ErrorModel) Coeff() float64 {
	return m.coeff
}

func entropySeed() uint64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms.
		panic(err)
	}
	return binary.LittleEndian.Uint64(b[:])
}

package chip8

import (
	"crypto/rand"
	mrand "math/rand/v2"
)

// RandomSource provides the random bytes used by RND Vx, byte
type RandomSource interface {
	Byte() byte
}

// CryptoRandom reads from the operating system generator
type CryptoRandom struct{}

func NewCryptoRandom() CryptoRandom {
	return CryptoRandom{}
}

func (CryptoRandom) Byte() byte {
	buff := [1]byte{}
	if _, err := rand.Read(buff[:]); err != nil {
		return byte(mrand.UintN(256))
	}

	return buff[0]
}

// SeededRandom is a reproducible source
type SeededRandom struct {
	rng *mrand.Rand
}

func NewSeededRandom(seed uint64) *SeededRandom {
	return &SeededRandom{
		rng: mrand.New(mrand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

func (r *SeededRandom) Byte() byte {
	return byte(r.rng.UintN(256))
}

// FixedRandom always returns the same byte
type FixedRandom byte

func (r FixedRandom) Byte() byte {
	return byte(r)
}

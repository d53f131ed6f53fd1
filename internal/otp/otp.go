// Package otp generates numeric one-time codes.
package otp

import (
	"math/rand/v2"
	"strings"
)

// DefaultLength is the code length used when none is configured.
const DefaultLength = 6

// Generate returns a string of length uniformly distributed decimal digits.
// The runtime source is seeded per process and is not predictable from
// earlier codes; expiry and attempt limits are what make the code safe.
func Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}

	var b strings.Builder
	b.Grow(length)
	for range length {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// Generator adapts Generate to a fixed length.
type Generator struct {
	length int
}

// NewGenerator creates a Generator producing codes of the given length.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a new code.
func (g *Generator) Generate() string {
	return Generate(g.length)
}

// Length returns the code length.
func (g *Generator) Length() int {
	return g.length
}

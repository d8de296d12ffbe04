package roomcode

import "math/rand/v2"

// Alphabet excludes 0, O, I and 1 so codes stay unambiguous when read aloud
// or typed from a screenshot.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the fixed room code length.
const Length = 6

// Generate returns a fresh room code. Uniqueness against open rooms is the
// caller's responsibility.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}

	return string(b)
}

// Package recordid generates sortable identifiers for sessions and stored
// game records.
package recordid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32, as used by TypeID.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const encodedLen = 26

// Generator produces ids of the form "<prefix>_<26 base32 chars>". The
// suffix is a UUIDv7, so ids with the same prefix sort by creation time.
type Generator struct {
	entropy io.Reader
}

// NewGenerator returns a generator reading randomness from entropy, or from
// crypto/rand when entropy is nil.
func NewGenerator(entropy io.Reader) *Generator {
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Generator{entropy: entropy}
}

// New returns a fresh id with the given prefix using crypto/rand.
func New(prefix string) string {
	return NewGenerator(nil).New(prefix)
}

// New returns a fresh id with the given prefix.
func (g *Generator) New(prefix string) string {
	id, err := uuid.NewV7FromReader(g.entropy)
	if err != nil {
		panic("recordid: failed to read entropy: " + err.Error())
	}
	return prefix + "_" + encode(id)
}

// encode writes the 128 bits of id as 26 base32 digits, most significant
// first. The leading digit carries the top 3 bits only.
func encode(id uuid.UUID) string {
	var sb strings.Builder
	sb.Grow(encodedLen)
	for i := 0; i < encodedLen; i++ {
		// Bit position of this digit's least significant bit, counted from
		// the end of the 130-bit padded value.
		shift := uint((encodedLen - 1 - i) * 5)
		sb.WriteByte(alphabet[extract(id, shift)])
	}
	return sb.String()
}

func extract(id uuid.UUID, shift uint) byte {
	var v byte
	for b := uint(0); b < 5; b++ {
		pos := shift + b
		if pos >= 128 {
			continue
		}
		byteIdx := 15 - pos/8
		if id[byteIdx]&(1<<(pos%8)) != 0 {
			v |= 1 << b
		}
	}
	return v
}

// Validate checks that id has the expected prefix and a well formed suffix.
func Validate(prefix, id string) error {
	want := prefix + "_"
	if !strings.HasPrefix(id, want) {
		return fmt.Errorf("record id %q must start with %q", id, want)
	}
	suffix := id[len(want):]
	if len(suffix) != encodedLen {
		return fmt.Errorf("record id suffix must be exactly %d characters, got %d", encodedLen, len(suffix))
	}
	if suffix[0] > '7' {
		return fmt.Errorf("record id suffix must start with 0-7, got %c", suffix[0])
	}
	for i, c := range suffix {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}

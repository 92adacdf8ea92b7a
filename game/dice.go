package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Dice is the random source for rolls. Injected so tests can script the
// sequence of values.
type Dice interface {
	Roll() int
}

type randDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDice returns a uniform six-sided die seeded from crypto/rand.
func NewDice() (Dice, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("failed to seed dice: %w", err)
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	return &randDice{rng: rand.New(rand.NewSource(seed))}, nil
}

func (d *randDice) Roll() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(6) + 1
}

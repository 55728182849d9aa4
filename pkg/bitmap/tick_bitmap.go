// Package bitmap implements the sparse tick bitmap: a map from word position
// to a 128-bit word whose bits mark initialized ticks, with O(1)-per-word
// search for the next initialized tick in either direction.
//
// Words are 128 bits rather than Uniswap v3's 256 so that a whole word fits
// the engine's native u128 arithmetic. Empty words are never stored.
package bitmap

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var ErrNotOnSpacing = errors.New("bitmap: tick not aligned to spacing")

// TickBitmap is a sparse map of word position to a 128-bit word. A bit is
// set iff the tick it represents is initialized.
type TickBitmap struct {
	words map[int32]*uint256.Int
}

// New returns an empty bitmap.
func New() *TickBitmap {
	return &TickBitmap{words: make(map[int32]*uint256.Int)}
}

// Flip toggles the bit for tick, creating or removing the backing word as
// it becomes non-identity / identity.
func (b *TickBitmap) Flip(tick, spacing int32) error {
	word, bit, err := position(tick, spacing)
	if err != nil {
		return err
	}
	w := b.wordAt(word)
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), bit)
	next := new(uint256.Int).Xor(w, mask)
	if next.IsZero() {
		delete(b.words, word)
		return nil
	}
	b.words[word] = next
	return nil
}

// IsInitialized reports whether tick's bit is set.
func (b *TickBitmap) IsInitialized(tick, spacing int32) (bool, error) {
	word, bit, err := position(tick, spacing)
	if err != nil {
		return false, err
	}
	w, ok := b.words[word]
	if !ok {
		return false, nil
	}
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), bit)
	return !new(uint256.Int).And(w, mask).IsZero(), nil
}

// NextInitializedWithinWord finds the next initialized tick within the word
// containing tick, searching toward lower ticks when searchingLeft is true,
// and toward higher ticks otherwise. When the search runs off the edge of
// the word without finding a set bit, it returns the word's boundary tick
// and found=false so the caller can advance to the adjacent word.
func (b *TickBitmap) NextInitializedWithinWord(tick, spacing int32, searchingLeft bool) (tickNext int32, found bool, err error) {
	compressed, err := compress(tick, spacing)
	if err != nil {
		return 0, false, err
	}

	if searchingLeft {
		word, bit := splitWord(compressed)
		w := b.wordAt(word)
		mask := maskUpToInclusive(bit)
		masked := new(uint256.Int).And(w, mask)
		if !masked.IsZero() {
			msb := uint(masked.BitLen() - 1)
			return (word*128 + int32(msb)) * spacing, true, nil
		}
		return (word*128 + 0) * spacing, false, nil
	}

	nextCompressed := compressed + 1
	word, bit := splitWord(nextCompressed)
	w := b.wordAt(word)
	mask := maskFromInclusive(bit)
	masked := new(uint256.Int).And(w, mask)
	if !masked.IsZero() {
		lsb := lowestSetBit(masked)
		return (word*128 + int32(lsb)) * spacing, true, nil
	}
	return (word*128 + 127) * spacing, false, nil
}

func (b *TickBitmap) wordAt(word int32) *uint256.Int {
	if w, ok := b.words[word]; ok {
		c := *w
		return &c
	}
	return new(uint256.Int)
}

func position(tick, spacing int32) (word int32, bit uint, err error) {
	compressed, err := compress(tick, spacing)
	if err != nil {
		return 0, 0, err
	}
	w, b := splitWord(compressed)
	return w, b, nil
}

func compress(tick, spacing int32) (int32, error) {
	if tick%spacing != 0 {
		return 0, fmt.Errorf("%w: tick %d spacing %d", ErrNotOnSpacing, tick, spacing)
	}
	return tick / spacing, nil
}

// splitWord decomposes a compressed tick into word position and bit offset.
// Arithmetic right shift by 7 is floor division by 128 for negative
// compressed ticks, and masking the low 7 bits is Euclidean mod 128; both
// hold because 128 is a power of two, so negative ticks wrap to bits 127..0.
func splitWord(compressed int32) (word int32, bit uint) {
	return compressed >> 7, uint(compressed & 127)
}

func maskUpToInclusive(bit uint) *uint256.Int {
	one := uint256.NewInt(1)
	shifted := new(uint256.Int).Lsh(one, bit+1)
	return new(uint256.Int).Sub(shifted, uint256.NewInt(1))
}

func maskFromInclusive(bit uint) *uint256.Int {
	if bit == 0 {
		return new(uint256.Int).Not(uint256.NewInt(0))
	}
	below := maskUpToInclusive(bit - 1)
	return new(uint256.Int).Not(below)
}

func lowestSetBit(x *uint256.Int) uint {
	for i := uint(0); i < 128; i++ {
		mask := new(uint256.Int).Lsh(uint256.NewInt(1), i)
		if !new(uint256.Int).And(x, mask).IsZero() {
			return i
		}
	}
	return 0
}

package brackets

import (
	"errors"
	"fmt"
	"math/bits"
	"math/rand/v2"
)

const ByeDisplayName = "BYE"

var (
	ErrInvalidBracketSize  = errors.New("bracket size must be a power of two and at least 2")
	ErrTooManyParticipants = errors.New("more participants than bracket slots")
)

// Entrant is the participant snapshot the engine works with.
type Entrant struct {
	ID          string `json:"participantId"`
	DisplayName string `json:"displayName"`
}

// Slot is a position in the first round. A nil ParticipantID means BYE.
type Slot struct {
	ParticipantID *string
	DisplayName   string
}

func (s Slot) IsBye() bool {
	return s.ParticipantID == nil
}

func byeSlot() Slot {
	return Slot{DisplayName: ByeDisplayName}
}

// Shuffler permutes n elements through swap. It matches the signature of
// rand.Shuffle so a seeded *rand.Rand can be injected in tests.
type Shuffler func(n int, swap func(i, j int))

// RandomShuffler returns a uniform Fisher-Yates shuffle over the global source.
func RandomShuffler() Shuffler {
	return rand.Shuffle
}

// IdentityShuffler keeps the input order.
func IdentityShuffler(int, func(i, j int)) {}

func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// BracketSize returns the smallest power of two that fits n participants,
// never less than 2.
func BracketSize(n int) int {
	if n <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

// Rounds returns log2(size).
func Rounds(size int) int {
	if size < 2 {
		return 0
	}
	return bits.Len(uint(size)) - 1
}

func validateSize(size int) error {
	if size < 2 || !IsPowerOfTwo(size) {
		return fmt.Errorf("%w: got %d", ErrInvalidBracketSize, size)
	}
	return nil
}

// SeedSlots shuffles the entrants and lays them into exactly size slots,
// filling the tail with BYEs. The entrants slice is left untouched.
func SeedSlots(entrants []Entrant, size int, shuffle Shuffler) ([]Slot, error) {
	if err := validateSize(size); err != nil {
		return nil, err
	}
	if len(entrants) > size {
		return nil, fmt.Errorf("%w: %d participants for %d slots", ErrTooManyParticipants, len(entrants), size)
	}
	if shuffle == nil {
		shuffle = RandomShuffler()
	}

	shuffled := make([]Entrant, len(entrants))
	copy(shuffled, entrants)
	shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	slots := make([]Slot, size)
	for i := range slots {
		if i >= len(shuffled) {
			slots[i] = byeSlot()
			continue
		}
		id := shuffled[i].ID
		slots[i] = Slot{ParticipantID: &id, DisplayName: shuffled[i].DisplayName}
	}
	return slots, nil
}

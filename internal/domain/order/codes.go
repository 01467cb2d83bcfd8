package order

import (
	"crypto/subtle"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
)

// OrderNumberGenerator produces human-facing order numbers of the form
// ORD-XXXXXXXX where X is an uppercase alphanumeric character.
type OrderNumberGenerator interface {
	OrderNumber() string
}

// OTPGenerator produces 6-digit delivery verification codes.
type OTPGenerator interface {
	DeliveryOTP() string
}

// CodeComparer decides whether a submitted delivery code matches the stored
// one. The default comparer is a plain equality check, matching the behavior
// this service replicates; swap in ConstantTimeComparer to close the timing
// side-channel without touching call sites.
type CodeComparer interface {
	Equal(stored, submitted string) bool
}

// UUIDOrderNumbers derives order numbers from random UUIDs. Collisions are
// accepted as negligible given the identifier's entropy; wrap with
// UniqueOrderNumbers when a hard uniqueness check is wanted.
type UUIDOrderNumbers struct{}

func (UUIDOrderNumbers) OrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}

// UniqueOrderNumbers decorates another generator with a bloom-filter
// membership check, retrying until it produces a number not seen before.
// False positives only cost an extra draw.
type UniqueOrderNumbers struct {
	gen OrderNumberGenerator

	mu   sync.Mutex
	seen *bloom.BloomFilter
}

// NewUniqueOrderNumbers wraps gen with a bloom filter sized for the expected
// number of orders at the given false-positive rate.
func NewUniqueOrderNumbers(gen OrderNumberGenerator, capacity uint, fpr float64) *UniqueOrderNumbers {
	return &UniqueOrderNumbers{
		gen:  gen,
		seen: bloom.NewWithEstimates(capacity, fpr),
	}
}

func (u *UniqueOrderNumbers) OrderNumber() string {
	u.mu.Lock()
	defer u.mu.Unlock()

	for {
		n := u.gen.OrderNumber()
		if !u.seen.TestString(n) {
			u.seen.AddString(n)
			return n
		}
	}
}

// RandomOTP draws codes uniformly from [100000, 999999].
type RandomOTP struct{}

func (RandomOTP) DeliveryOTP() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// ExactComparer matches codes by plain string equality.
type ExactComparer struct{}

func (ExactComparer) Equal(stored, submitted string) bool {
	return stored == submitted
}

// ConstantTimeComparer matches codes without leaking the match position
// through timing.
type ConstantTimeComparer struct{}

func (ConstantTimeComparer) Equal(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

package booking

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	// BookingIDPrefix starts every booking id
	BookingIDPrefix = "HST"
	// bookingIDAlphabet omits 0, 1, I and O. Its length is 32 so a random
	// byte masked to five bits picks a symbol without bias.
	bookingIDAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	bookingIDSuffixLen = 6
)

var bookingIDPattern = regexp.MustCompile(`^HST[0-9]{2}[A-HJ-NP-Z2-9]{6}$`)

// IsValidBookingID checks the HST + YY + 6 symbol format
func IsValidBookingID(id string) bool {
	return bookingIDPattern.MatchString(id)
}

// IDGenerator produces booking ids
type IDGenerator struct {
	now  func() time.Time
	rand io.Reader
}

// IDGeneratorOption configures an IDGenerator
type IDGeneratorOption func(*IDGenerator)

// WithClock overrides the clock used for the year component
func WithClock(now func() time.Time) IDGeneratorOption {
	return func(g *IDGenerator) {
		g.now = now
	}
}

// WithRandomSource overrides the entropy source
func WithRandomSource(r io.Reader) IDGeneratorOption {
	return func(g *IDGenerator) {
		g.rand = r
	}
}

// NewIDGenerator creates a generator backed by crypto/rand
func NewIDGenerator(opts ...IDGeneratorOption) *IDGenerator {
	g := &IDGenerator{
		now:  time.Now,
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a new booking id such as HST25K7QX2M
func (g *IDGenerator) Generate() (string, error) {
	buf := make([]byte, bookingIDSuffixLen)
	if _, err := io.ReadFull(g.rand, buf); err != nil {
		return "", fmt.Errorf("read booking id entropy: %w", err)
	}

	suffix := make([]byte, bookingIDSuffixLen)
	for i, b := range buf {
		suffix[i] = bookingIDAlphabet[b&0x1f]
	}
	return fmt.Sprintf("%s%02d%s", BookingIDPrefix, g.now().Year()%100, suffix), nil
}

// Package idgen mints the human-readable identifiers handed to drivers:
// booking codes (PREFIX-DIRECTION-YYYYMM-NNNNNN, scoped by purpose and month)
// and queue numbers (PREFIX-NNN, scoped by calendar day).
//
// Uniqueness comes from a Sequencer whose Next is atomic per scope. The
// "floor" passed to it is the legacy read of existing data (greatest booking
// suffix, today's check-in count), so numbering continues from records that
// predate the sequence table instead of restarting at one.
package idgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/dockgate/internal/domain"
)

// Sequencer hands out the next value of a named counter.
// Next must be atomic per scope: concurrent callers never receive the same
// value, and the returned value is strictly greater than floor.
type Sequencer interface {
	Next(ctx context.Context, scope string, floor int64) (int64, error)
}

// Floors reads the existing data the counters continue from.
type Floors interface {
	// MaxBookingSeq returns the numeric suffix of the lexicographically
	// greatest booking code starting with prefix, or 0 when there is none.
	MaxBookingSeq(ctx context.Context, prefix string) (int64, error)

	// CountQueued returns how many visits received a queue number on day.
	CountQueued(ctx context.Context, day time.Time) (int64, error)
}

// Generator mints booking codes and queue numbers.
type Generator struct {
	prefix string
	loc    *time.Location
	seq    Sequencer
	floors Floors
}

// NewGenerator constructs a Generator. loc decides where month and day
// boundaries fall; nil means UTC. floors may be nil when no legacy data exists.
func NewGenerator(prefix string, loc *time.Location, seq Sequencer, floors Floors) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{prefix: prefix, loc: loc, seq: seq, floors: floors}
}

// BookingCode returns the next booking code for purpose in the month of at.
func (g *Generator) BookingCode(ctx context.Context, purpose domain.Purpose, at time.Time) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("%w: unknown purpose %q", domain.ErrValidation, purpose)
	}
	scope := BookingScope(g.prefix, purpose.Direction(), at.In(g.loc))

	var floor int64
	if g.floors != nil {
		var err error
		floor, err = g.floors.MaxBookingSeq(ctx, scope+"-")
		if err != nil {
			return "", fmt.Errorf("idgen.Generator.BookingCode: %w", err)
		}
	}

	n, err := g.seq.Next(ctx, "booking:"+scope, floor)
	if err != nil {
		return "", fmt.Errorf("idgen.Generator.BookingCode: %w", err)
	}
	return fmt.Sprintf("%s-%06d", scope, n), nil
}

// QueueNumber returns the next queue number for the calendar day of at,
// together with that day (midnight in the generator's location).
func (g *Generator) QueueNumber(ctx context.Context, at time.Time) (string, time.Time, error) {
	day := Day(at, g.loc)

	var floor int64
	if g.floors != nil {
		var err error
		floor, err = g.floors.CountQueued(ctx, day)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("idgen.Generator.QueueNumber: %w", err)
		}
	}

	n, err := g.seq.Next(ctx, "queue:"+day.Format(time.DateOnly), floor)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("idgen.Generator.QueueNumber: %w", err)
	}
	return FormatQueueNumber(g.prefix, n), day, nil
}

// BookingScope is the code prefix shared by every booking of one direction in
// one month, e.g. "SOC-OUT-202610".
func BookingScope(prefix, direction string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, direction, at.Format("200601"))
}

// FormatQueueNumber renders n zero-padded to three digits, e.g. "SOC-007".
func FormatQueueNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

// ParseSeq extracts the trailing numeric segment of a code.
func ParseSeq(code string) (int64, bool) {
	i := strings.LastIndexByte(code, '-')
	if i < 0 || i == len(code)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(code[i+1:], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Day truncates t to midnight of its calendar day in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

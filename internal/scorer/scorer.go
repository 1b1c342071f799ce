// Package scorer implements the Mozilla Places frecency model used to rank
// resources by a blend of visit recency and frequency.
//
// See https://developer.mozilla.org/en-US/docs/Mozilla/Tech/Places/Frecency_algorithm
package scorer

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// MaxVisits bounds the FIFO visit log kept per scorer.
const MaxVisits = 10

// Priority is the weight bucket of a single visit. The numeric value
// doubles as the percentage bonus applied in the frecency formula.
type Priority uint32

const (
	PriorityNormal   Priority = 100
	PriorityHigh     Priority = 150
	PriorityVeryHigh Priority = 200
)

// Bonus returns the percentage multiplier for this priority.
func (p Priority) Bonus() uint32 {
	return uint32(p)
}

func (p Priority) String() string {
	switch p {
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityVeryHigh:
		return "very_high"
	default:
		return fmt.Sprintf("priority(%d)", uint32(p))
	}
}

// VisitEntry is a single sampled visit: when it happened and at what
// priority.
type VisitEntry struct {
	Timestamp time.Time
	Priority  Priority
}

// Scorer holds a bounded FIFO of recent visits and the running visit count
// used to compute frecency.
type Scorer struct {
	VisitCount uint32
	Entries    []VisitEntry
}

// Add appends a visit, dropping the oldest entry once the log exceeds
// MaxVisits. VisitCount always increments, even for dropped entries.
func (s *Scorer) Add(entry VisitEntry) {
	if len(s.Entries) >= MaxVisits {
		s.Entries = append(s.Entries[:0], s.Entries[1:]...)
	}
	s.Entries = append(s.Entries, entry)
	s.VisitCount++
}

// ageWeight returns the step-function weight for a visit that happened d
// days ago.
func ageWeight(d time.Duration) uint32 {
	days := int64(d / (24 * time.Hour))
	switch {
	case days <= 4:
		return 100
	case days <= 14:
		return 70
	case days <= 31:
		return 50
	case days <= 90:
		return 30
	default:
		return 10
	}
}

// roundHalfAwayFromZero rounds f to the nearest integer, breaking ties away
// from zero (never banker's rounding).
func roundHalfAwayFromZero(f float64) int64 {
	if f >= 0 {
		return int64(math.Floor(f + 0.5))
	}
	return -int64(math.Floor(-f + 0.5))
}

// Frecency computes the live frecency score against the current wall clock.
// It returns 0 for an empty visit log.
func (s *Scorer) Frecency() uint32 {
	return s.frecencyAt(time.Now())
}

func (s *Scorer) frecencyAt(now time.Time) uint32 {
	if len(s.Entries) == 0 {
		return 0
	}

	var sum float64
	for _, e := range s.Entries {
		weight := ageWeight(now.Sub(e.Timestamp))
		point := roundHalfAwayFromZero(float64(e.Priority.Bonus()) * float64(weight) / 100.0)
		sum += float64(point)
	}

	rounded := roundHalfAwayFromZero(sum)
	return uint32(int64(s.VisitCount) * rounded / int64(len(s.Entries)))
}

// Encode serializes the scorer into the compact binary form defined by the
// store's wire format: u32 visit_count, u32 entry_count, then entry_count
// records of (i64 timestamp_micros, u8 priority).
func (s *Scorer) Encode() []byte {
	buf := make([]byte, 8+len(s.Entries)*9)
	binary.BigEndian.PutUint32(buf[0:4], s.VisitCount)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(s.Entries)))
	off := 8
	for _, e := range s.Entries {
		binary.BigEndian.PutUint64(buf[off:off+8], uint64(e.Timestamp.UnixMicro()))
		buf[off+8] = byte(e.Priority)
		off += 9
	}
	return buf
}

// Decode reverses Encode. It returns an error if the buffer is truncated or
// claims more entries than MaxVisits (I7).
func Decode(data []byte) (*Scorer, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("scorer: truncated header (%d bytes)", len(data))
	}
	visitCount := binary.BigEndian.Uint32(data[0:4])
	count := binary.BigEndian.Uint32(data[4:8])
	if count > MaxVisits {
		return nil, fmt.Errorf("scorer: %d entries exceeds max %d", count, MaxVisits)
	}
	want := 8 + int(count)*9
	if len(data) < want {
		return nil, fmt.Errorf("scorer: truncated entries, want %d bytes, have %d", want, len(data))
	}

	entries := make([]VisitEntry, 0, count)
	off := 8
	for i := uint32(0); i < count; i++ {
		micros := int64(binary.BigEndian.Uint64(data[off : off+8]))
		priority := Priority(data[off+8])
		entries = append(entries, VisitEntry{
			Timestamp: time.UnixMicro(micros).UTC(),
			Priority:  priority,
		})
		off += 9
	}

	return &Scorer{VisitCount: visitCount, Entries: entries}, nil
}

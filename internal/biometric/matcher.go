package biometric

import (
	"math"
	"strings"
)

// Default match thresholds. Per-finger matching is stricter than the
// whole-hand comparison.
const (
	DefaultHandThreshold   = 0.85
	DefaultFingerThreshold = 0.90
)

// Reason explains a Verdict.
type Reason string

const (
	ReasonMatched     Reason = "matched"
	ReasonMissing     Reason = "missing"
	ReasonWrongHand   Reason = "wrong-hand"
	ReasonWrongFinger Reason = "wrong-finger"
	ReasonNoMatch     Reason = "below-threshold"
)

// Verdict is the outcome of one comparison.
type Verdict struct {
	Matched    bool    `json:"matched"`
	Reason     Reason  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Thresholds are the minimum cosine similarities accepted as a match.
type Thresholds struct {
	Hand   float64
	Finger float64
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Hand:   DefaultHandThreshold,
		Finger: DefaultFingerThreshold,
	}
}

// Matcher compares captures with enrolled embeddings. It holds no state
// beyond its thresholds.
type Matcher struct {
	thresholds Thresholds
}

// NewMatcher creates a Matcher. Zero thresholds fall back to the defaults.
func NewMatcher(t Thresholds) *Matcher {
	if t.Hand <= 0 {
		t.Hand = DefaultHandThreshold
	}
	if t.Finger <= 0 {
		t.Finger = DefaultFingerThreshold
	}
	return &Matcher{thresholds: t}
}

// Thresholds returns the thresholds in effect.
func (m *Matcher) Thresholds() Thresholds {
	return m.thresholds
}

// CosineSimilarity returns dot(a,b)/(|a||b|) in [-1, 1]. It returns 0 when
// the lengths differ, either vector is empty, or either has zero norm.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}

	if na == 0 || nb == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(na) * math.Sqrt(nb))

	// Rounding can push a self-match a hair past 1.
	switch {
	case similarity > 1:
		return 1
	case similarity < -1:
		return -1
	}
	return similarity
}

// MatchWholeHand compares a whole-hand capture with the enrolled palm.
func (m *Matcher) MatchWholeHand(storedSide, detectedSide string, stored, detected Embedding) Verdict {
	if storedSide == "" || detectedSide == "" || stored.Empty() || detected.Empty() {
		return Verdict{Reason: ReasonMissing}
	}

	if !strings.EqualFold(storedSide, detectedSide) {
		return Verdict{Reason: ReasonWrongHand}
	}

	return m.decide(stored, detected, KindHand, m.thresholds.Hand)
}

// MatchFinger compares one finger capture with the enrolled feature vector
// of the same finger.
func (m *Matcher) MatchFinger(storedSide, detectedSide, storedFinger, detectedFinger string, stored, detected Embedding) Verdict {
	if stored.Empty() || detected.Empty() {
		return Verdict{Reason: ReasonMissing}
	}

	if !strings.EqualFold(storedSide, detectedSide) {
		return Verdict{Reason: ReasonWrongHand}
	}

	if !strings.EqualFold(storedFinger, detectedFinger) {
		return Verdict{Reason: ReasonWrongFinger}
	}

	return m.decide(stored, detected, KindFinger, m.thresholds.Finger)
}

func (m *Matcher) decide(stored, detected Embedding, kind Kind, threshold float64) Verdict {
	if stored.Kind != kind || detected.Kind != kind {
		return Verdict{Reason: ReasonMissing}
	}

	similarity := CosineSimilarity(stored.Vector, detected.Vector)
	if similarity < threshold {
		return Verdict{Reason: ReasonNoMatch, Confidence: similarity}
	}

	return Verdict{Matched: true, Reason: ReasonMatched, Confidence: similarity}
}

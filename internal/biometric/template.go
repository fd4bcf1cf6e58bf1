package biometric

import (
	"errors"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/geometry"
)

// ErrEmptyEmbedding is returned when a palm produces no usable features.
var ErrEmptyEmbedding = errors.New("empty hand embedding")

// Template is the enrolled reference for one session: the user's hand side,
// the whole-hand embedding and one feature vector per finger, all taken
// from the same palm capture. It is read-only once created.
type Template struct {
	Side    geometry.Side
	Hand    Embedding
	Fingers [detector.NumFingers]Embedding
}

// Enroll builds a Template from an accepted palm capture.
func Enroll(hand *detector.HandLandmarks) (*Template, error) {
	if hand == nil {
		return nil, ErrEmptyEmbedding
	}

	embedding := HandEmbedding(hand)
	if embedding.Empty() {
		return nil, ErrEmptyEmbedding
	}

	t := &Template{
		Side: geometry.Handedness(hand),
		Hand: embedding,
	}
	for _, f := range detector.FingerOrder {
		t.Fingers[f] = FingerEmbedding(hand, f)
	}

	return t, nil
}

// Finger returns the enrolled feature vector for f, or an empty embedding
// if f is not a known finger.
func (t *Template) Finger(f detector.Finger) Embedding {
	if !f.Valid() {
		return Embedding{Kind: KindFinger, Finger: f}
	}
	return t.Fingers[f]
}

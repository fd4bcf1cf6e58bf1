// Package biometric turns hand landmarks into comparable feature vectors and
// matches captures against an enrolled template.
package biometric

import (
	"math"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
)

// Embedding lengths.
const (
	HandEmbeddingSize   = detector.NumLandmarks - 1 + detector.NumFingers*(detector.NumFingers-1)/2
	FingerEmbeddingSize = 4 * 3
)

// Kind is the extraction mode that produced an embedding.
type Kind string

const (
	KindHand   Kind = "hand"
	KindFinger Kind = "finger"
)

// Embedding is a feature vector. Two embeddings are only comparable when
// they share a Kind and, for finger embeddings, the same Finger.
type Embedding struct {
	Kind   Kind            `json:"kind"`
	Finger detector.Finger `json:"finger"`
	Vector []float64       `json:"vector"`
}

// Empty reports whether the embedding carries no values.
func (e Embedding) Empty() bool {
	return len(e.Vector) == 0
}

// HandEmbedding describes whole-hand shape: the distance of landmarks 1..20
// from the wrist followed by the ten pairwise fingertip distances, scaled to
// unit length. A vector of all zeros is returned unscaled.
func HandEmbedding(hand *detector.HandLandmarks) Embedding {
	if hand == nil {
		return Embedding{Kind: KindHand}
	}

	vector := make([]float64, 0, HandEmbeddingSize)

	wrist := hand.Points[detector.Wrist]
	for i := 1; i < detector.NumLandmarks; i++ {
		vector = append(vector, detector.Distance(hand.Points[i], wrist))
	}

	tips := detector.FingertipIndices
	for i := 0; i < len(tips); i++ {
		for j := i + 1; j < len(tips); j++ {
			vector = append(vector, detector.Distance(hand.Points[tips[i]], hand.Points[tips[j]]))
		}
	}

	return Embedding{Kind: KindHand, Vector: Normalize(vector)}
}

// FingerEmbedding describes one finger: its four landmarks with the wrist's
// x and y subtracted, depth kept as reported. The vector is not normalized;
// cosine comparison divides magnitude out.
func FingerEmbedding(hand *detector.HandLandmarks, finger detector.Finger) Embedding {
	e := Embedding{Kind: KindFinger, Finger: finger}
	if hand == nil || !finger.Valid() {
		return e
	}

	j := finger.Joints()
	wrist := hand.Points[detector.Wrist]

	e.Vector = make([]float64, 0, FingerEmbeddingSize)
	for i := j.First; i <= j.Last; i++ {
		p := hand.Points[i]
		e.Vector = append(e.Vector, p.X-wrist.X, p.Y-wrist.Y, p.Z)
	}

	return e
}

// Norm returns the L2 norm of v.
func Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Normalize scales v to unit length in place and returns it. Zero vectors
// are returned unchanged.
func Normalize(v []float64) []float64 {
	n := Norm(v)
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] /= n
	}
	return v
}

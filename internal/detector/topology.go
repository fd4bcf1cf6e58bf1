package detector

import "strings"

// Finger identifies one of the five digits.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Little
)

// NumFingers is the number of digits captured after the palm.
const NumFingers = 5

// FingerOrder is the capture order and the priority order used when
// identifying which finger is extended.
var FingerOrder = [NumFingers]Finger{Thumb, Index, Middle, Ring, Little}

// FingerJoints locates one finger inside the 21-point skeleton.
// First..Last is the inclusive landmark range of the finger.
type FingerJoints struct {
	Name  string
	First int
	Last  int
	Base  int // CMC for the thumb, MCP otherwise
	Joint int // IP for the thumb, PIP otherwise
	Tip   int
}

// Fingers is the single source of truth for finger landmark indices.
// Retarget this table if the detector topology changes.
var Fingers = [NumFingers]FingerJoints{
	Thumb:  {Name: "Thumb", First: ThumbCMC, Last: ThumbTip, Base: ThumbCMC, Joint: ThumbIP, Tip: ThumbTip},
	Index:  {Name: "Index", First: IndexMCP, Last: IndexTip, Base: IndexMCP, Joint: IndexPIP, Tip: IndexTip},
	Middle: {Name: "Middle", First: MiddleMCP, Last: MiddleTip, Base: MiddleMCP, Joint: MiddlePIP, Tip: MiddleTip},
	Ring:   {Name: "Ring", First: RingMCP, Last: RingTip, Base: RingMCP, Joint: RingPIP, Tip: RingTip},
	Little: {Name: "Little", First: PinkyMCP, Last: PinkyTip, Base: PinkyMCP, Joint: PinkyPIP, Tip: PinkyTip},
}

// FingertipIndices lists the tip landmark of every finger in capture order.
var FingertipIndices = [NumFingers]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Valid reports whether f is one of the five known fingers.
func (f Finger) Valid() bool {
	return f >= Thumb && f <= Little
}

// Joints returns the landmark indices of f. It panics on an invalid finger.
func (f Finger) Joints() FingerJoints {
	return Fingers[f]
}

func (f Finger) String() string {
	if !f.Valid() {
		return "Unknown"
	}
	return Fingers[f].Name
}

// ParseFinger resolves a finger name case-insensitively.
func ParseFinger(name string) (Finger, bool) {
	for _, f := range FingerOrder {
		if strings.EqualFold(Fingers[f].Name, name) {
			return f, true
		}
	}
	return -1, false
}

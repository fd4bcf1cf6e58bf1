package enroll

import (
	"errors"
	"fmt"
)

// Rejection kinds. Every rejection is recoverable: the session stays where
// it was and the user may retry.
var (
	ErrQualityRejected     = errors.New("quality rejected")
	ErrDetectionFailed     = errors.New("detection failed")
	ErrOrientationRejected = errors.New("orientation rejected")
	ErrIdentityRejected    = errors.New("identity rejected")
	ErrSimilarityRejected  = errors.New("similarity rejected")
	ErrDataMissing         = errors.New("data missing")
	ErrStageRejected       = errors.New("stage rejected")
	ErrBusy                = errors.New("capture already in progress")
)

// Reason is the machine-readable cause of a rejection.
type Reason string

const (
	ReasonBlurred         Reason = "blurred"
	ReasonPoorLighting    Reason = "poor-lighting"
	ReasonNoHand          Reason = "no-hand"
	ReasonMultipleHands   Reason = "multiple-hands"
	ReasonDetectorFailure Reason = "detector-failure"
	ReasonDorsalPalm      Reason = "dorsal-palm"
	ReasonDorsalFinger    Reason = "dorsal-finger"
	ReasonWrongHand       Reason = "wrong-hand"
	ReasonWrongFinger     Reason = "wrong-finger"
	ReasonBelowThreshold  Reason = "below-threshold"
	ReasonNoTemplate      Reason = "no-template-yet"
	ReasonAlreadyEnrolled Reason = "already-enrolled"
	ReasonSessionComplete Reason = "session-complete"
	ReasonSessionReset    Reason = "session-reset"
	ReasonInFlight        Reason = "attempt-in-flight"
)

// Rejection is a refused capture attempt. Kind is one of the Err* sentinels
// above; Message is the advisory shown to the user.
type Rejection struct {
	Kind    error
	Reason  Reason
	Message string
	Err     error
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s (%s): %v", r.Kind, r.Reason, r.Err)
	}
	return fmt.Sprintf("%s (%s)", r.Kind, r.Reason)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is.
func (r *Rejection) Unwrap() []error {
	if r.Err != nil {
		return []error{r.Kind, r.Err}
	}
	return []error{r.Kind}
}

func reject(kind error, reason Reason, message string) *Rejection {
	return &Rejection{Kind: kind, Reason: reason, Message: message}
}

// AsRejection extracts a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

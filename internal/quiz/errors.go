package quiz

import "errors"

var (
	// ErrUnknownCard is returned when a card id does not belong to the session.
	ErrUnknownCard = errors.New("card not in session")
	// ErrAlreadyAnswered is returned when a card is answered a second time.
	ErrAlreadyAnswered = errors.New("card already answered")
	// ErrInvalidTransition is returned when an action is not allowed in the
	// session's current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrIncomplete is returned when completion is requested before every
	// card has been answered.
	ErrIncomplete = errors.New("session has unanswered cards")
	// ErrNothingToRetake is returned when a retake is requested but no card
	// was answered incorrectly.
	ErrNothingToRetake = errors.New("no failed cards to retake")
)

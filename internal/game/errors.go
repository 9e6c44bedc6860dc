package game

import "errors"

// User errors: an illegal action given the current state. These are
// reported back to the originating actor only; session state is unchanged
// and no effect events are emitted.
var (
	ErrNotYourTurn         = errors.New("not your turn")
	ErrCardNotInHand       = errors.New("card not in hand")
	ErrCountessRequired    = errors.New("the Countess must be played while holding the King or Prince")
	ErrIllegalTargetSelf   = errors.New("cannot target yourself")
	ErrIllegalTargetStatus = errors.New("target is not a live, unshielded participant")
	ErrNoPendingChoice     = errors.New("no choice is awaiting you")
	ErrInvalidGuess        = errors.New("guess must name a rank other than Guard")
	ErrChoicePending       = errors.New("resolve the open choice first")
	ErrAlreadyVoted        = errors.New("ballot already cast this round")
	ErrAgendaIndex         = errors.New("agenda index out of range")
	ErrNoBallotOpen        = errors.New("no ballot round is open")
	ErrStockExhausted      = errors.New("stock is exhausted")
	ErrUnknownAction       = errors.New("unknown action kind")

	ErrUnknownVariant   = errors.New("unknown variant")
	ErrCapacityRange    = errors.New("capacity outside the variant's bounds")
	ErrRoomFull         = errors.New("session roster is full")
	ErrRoomNotOpen      = errors.New("session is not open for joining")
	ErrRoomNotFound     = errors.New("session not found")
	ErrAlreadyInSession = errors.New("participant already occupies a session")
	ErrSessionNotActive = errors.New("session is not in progress")
)

// Capacity error: the configured live-session limit has been reached.
var ErrServerFull = errors.New("session limit reached")

// ErrNoEligibleParticipant indicates the turn engine could not find a
// non-eliminated participant. The win evaluator must terminate a session
// before this can happen, so hitting it is an invariant violation: the
// affected session is aborted, the process keeps serving other sessions.
var ErrNoEligibleParticipant = errors.New("no eligible participant for next turn")

package gamedto

// DomainError is a stable, presentation-safe error. Code values are part of
// the public contract consumed by transport layers.
type DomainError struct {
	Code      string
	Message   string
	Retryable bool
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "game session error"
}

const (
	CodeMoveInvalid     = "move_invalid"
	CodeNotYourTurn     = "not_your_turn"
	CodeNotInGame       = "not_in_game"
	CodeGameAlreadyOver = "game_already_over"
	CodeGameNotStarted  = "game_not_started"
	CodeAlreadyStarted  = "already_started"
	CodeDrawOnCooldown  = "draw_on_cooldown"
	CodePersistence     = "persistence_failure"
	CodeGameNotFound    = "game_not_found"
)

func NewDomainError(code, message string) DomainError {
	return DomainError{Code: code, Message: message}
}

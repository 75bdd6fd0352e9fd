package commands

import "github.com/pixil98/tickmud/internal/display"

// UserError represents an error that should be displayed to the user.
// These are not system failures - just invalid input or usage.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError creates a user-facing error.
func NewUserError(msg string) *UserError {
	return &UserError{Message: msg}
}

// userErr turns a game rule violation into something to show the player.
func userErr(err error) error {
	if err == nil {
		return nil
	}
	return NewUserError(display.Sentence(err.Error()))
}

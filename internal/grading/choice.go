package grading

import (
	"errors"
	"fmt"
)

// Choice is the minimal view of a question's choice needed for grading.
type Choice struct {
	ID      string
	Correct bool
}

// ErrNoCorrectChoice reports a single-choice question with zero is_correct
// rows. That is broken authoring data and must surface as an error, never as
// a silent zero.
var ErrNoCorrectChoice = errors.New("no correct choice configured")

// UnknownChoiceError reports a selected choice id that does not belong to the
// question's own choice set.
type UnknownChoiceError struct{ ID string }

func (e *UnknownChoiceError) Error() string {
	return fmt.Sprintf("choice %q does not belong to this question", e.ID)
}

// GradeChoice scores a single-choice selection: maxScore when the selected id
// is the question's correct choice, 0 otherwise.
func GradeChoice(selectedID string, choices []Choice, maxScore int) (int, error) {
	var correctID string
	known := false
	for _, c := range choices {
		if c.ID == selectedID {
			known = true
		}
		if c.Correct && correctID == "" {
			correctID = c.ID
		}
	}
	if correctID == "" {
		return 0, ErrNoCorrectChoice
	}
	if !known {
		return 0, &UnknownChoiceError{ID: selectedID}
	}
	if selectedID == correctID {
		return maxScore, nil
	}
	return 0, nil
}

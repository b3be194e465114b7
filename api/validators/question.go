package validators

import (
	"fmt"
	"unicode/utf8"

	pkgerrors "github.com/angelmondragon/quickdeals/pkg/errors"
)

// QuestionRequest is the JSON body of POST /api/v1/query.
type QuestionRequest struct {
	Question string `json:"question" validate:"max=10000"`
}

// ValidateQuestion rejects questions longer than maxLen characters. An empty
// question is valid; the agent skips it.
func ValidateQuestion(question string, maxLen int) error {
	if maxLen <= 0 {
		return nil
	}
	if err := validate.Var(question, fmt.Sprintf("max=%d", maxLen)); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{
				"question": fmt.Sprintf("must be at most %d characters (got %d)", maxLen, utf8.RuneCountInString(question)),
			})
	}
	return nil
}

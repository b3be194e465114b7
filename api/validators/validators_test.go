package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/quickdeals/pkg/errors"
)

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"question":"cheapest onion"}`))

	var body QuestionRequest
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "cheapest onion", body.Question)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"question":"x","sql":"DROP TABLE product"}`))

	var body QuestionRequest
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyMalformed(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/query", strings.NewReader(`{"question":`))

	var body QuestionRequest
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestValidateQuestion(t *testing.T) {
	require.NoError(t, ValidateQuestion("", 10))
	require.NoError(t, ValidateQuestion("onion", 10))
	require.NoError(t, ValidateQuestion(strings.Repeat("x", 50), 0))

	err := ValidateQuestion(strings.Repeat("x", 11), 10)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Details().(map[string]string)["question"], "at most 10")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "onion", SanitizeString("  onion \n", 0))
	assert.Equal(t, "oni", SanitizeString("onion", 3))
}

package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "vaxboard/internal/errors"
)

type filterQuery struct {
	Countries []string `json:"country" validate:"omitempty,dive,countryname"`
	From      string   `json:"from" validate:"omitempty,isodate"`
	To        string   `json:"to" validate:"omitempty,isodate"`
}

func TestValidateStruct(t *testing.T) {
	m := NewValidationMiddleware(discardLogger())

	tests := []struct {
		name    string
		input   filterQuery
		wantErr bool
	}{
		{"empty is valid", filterQuery{}, false},
		{"valid selection", filterQuery{Countries: []string{"Albania"}, From: "2021-01-10", To: "2021-01-12"}, false},
		{"bad date layout", filterQuery{From: "10/01/2021"}, true},
		{"blank country", filterQuery{Countries: []string{""}}, true},
		{"country with control chars", filterQuery{Countries: []string{"Alb\nania"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.input)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
		})
	}
}

package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Date  string `json:"date" validate:"required,kstdate"`
	Start string `json:"startTime" validate:"required,kstclock"`
}

func TestNew_CustomTags(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		in      sample
		invalid []string
	}{
		{"valid", sample{Date: "2025-03-10", Start: "09:30"}, nil},
		{"impossible date", sample{Date: "2025-02-30", Start: "09:30"}, []string{"date"}},
		{"wrong date layout", sample{Date: "2025/03/10", Start: "09:30"}, []string{"date"}},
		{"hour out of range", sample{Date: "2025-03-10", Start: "24:00"}, []string{"startTime"}},
		{"missing minutes", sample{Date: "2025-03-10", Start: "9"}, []string{"startTime"}},
		{"both empty", sample{}, []string{"date", "startTime"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.invalid == nil {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			var fields []string
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.invalid, fields)
		})
	}
}

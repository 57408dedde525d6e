package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"0", true},
		{"12.3456", true},
		{"1.50000000", true},
		{"-99999999999999.9999", true},
		{"99999999999999.9999", true},
		{"0.00004", false},
		{"12.34567", false},
		{"100000000000000", false},
		{"-100000000000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := CheckAmount(dec(tt.value))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDiscountValidate_Scale(t *testing.T) {
	assert.NoError(t, Discount{Type: DiscountPercent, Value: dec("12.5")}.Validate())
	err := Discount{Type: DiscountPercent, Value: dec("12.55555")}.Validate()
	assert.True(t, IsValidationError(err))
}

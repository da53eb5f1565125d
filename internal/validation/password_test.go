package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Length 4", "1234", true},
		{"Length 5", "12345", false},
		{"Length 6", "abcdef", false},
		{"Length 7", "1234567", false},
		{"Length 8", "12345678", true},
		{"Empty", "", true},
		{"Multibyte Counted As Characters", "ÅÅÅÅÅ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "dana", false},
		{"Single Character", "u", false},
		{"Empty", "", true},
		{"Blank", "   ", true},
		{"Exactly Max Length", strings.Repeat("a", 30), false},
		{"Too Long", strings.Repeat("a", 31), true},
		{"Digits Underscore Hyphen", "ann_smith-2", false},
		{"Space", "ann smith", true},
		{"Slash", "ann/smith", true},
		{"Percent", "ann%20", true},
		{"Apostrophe", "O'Hara", true},
		{"Non-ASCII", "José", true},
		{"Leading Space", " ann", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDiscount(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateDiscount(0))
	assert.NoError(t, ValidateDiscount(10))
	assert.NoError(t, ValidateDiscount(100))
	assert.Error(t, ValidateDiscount(-1))
	assert.Error(t, ValidateDiscount(100.5))
	assert.Error(t, ValidateDiscount(math.NaN()))
}

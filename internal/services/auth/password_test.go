// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPasswordValidator(t *testing.T) {
	v := DefaultPasswordValidator(6)

	tests := []struct {
		name     string
		password string
		attrs    []string
		code     string
	}{
		{"valid", "secret1", []string{"Amina", "Yusuf", "a@x.com"}, ""},
		{"too short", "ab1", nil, "min_length"},
		{"numeric", "12345678", nil, "entirely_numeric"},
		{"common", "Password1", nil, "common_password"},
		{"contains name", "amina2024!", []string{"Amina", "Yusuf"}, "too_similar"},
		{"contains email local part", "xx-hassan-xx", []string{"hassan@auis.edu.krd"}, "too_similar"},
		{"short attributes ignored", "secret1", []string{"A", "B", "e@x.io"}, ""},
		{"longer than bcrypt accepts", strings.Repeat("kq9!", 19), nil, "max_length"},
		{"exactly bcrypt limit", strings.Repeat("kq9!", 18), nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.password, tt.attrs...)
			if tt.code == "" {
				assert.True(t, result.Valid, result.FirstMessage())
				return
			}
			assert.False(t, result.Valid)
			codes := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				codes = append(codes, e.Code)
			}
			assert.Contains(t, codes, tt.code)
		})
	}
}

func TestDefaultPasswordValidator_MinLengthFallback(t *testing.T) {
	assert.Equal(t, 6, DefaultPasswordValidator(0).MinLength)
	assert.Equal(t, 10, DefaultPasswordValidator(10).MinLength)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("abc", "abc"), 0.001)
	assert.InDelta(t, 0.0, similarity("", "abc"), 0.001)
	assert.Equal(t, 3, longestCommonSubsequence("abcdef", "axbxcx"))
}

// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed common_passwords.txt
var commonPasswordsFS embed.FS

var commonPasswords map[string]struct{}

func init() {
	commonPasswords = make(map[string]struct{})
	file, err := commonPasswordsFS.Open("common_passwords.txt")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		password := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if password != "" && !strings.HasPrefix(password, "#") {
			commonPasswords[password] = struct{}{}
		}
	}
}

// minAttributeLength is the shortest personal attribute compared against a password.
const minAttributeLength = 3

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordValidator checks new passwords against the account password policy.
type PasswordValidator struct {
	MinLength            int
	CheckCommonPasswords bool
	CheckUserSimilarity  bool
}

// DefaultPasswordValidator returns the policy used for member accounts.
func DefaultPasswordValidator(minLength int) *PasswordValidator {
	if minLength <= 0 {
		minLength = 6
	}
	return &PasswordValidator{
		MinLength:            minLength,
		CheckCommonPasswords: true,
		CheckUserSimilarity:  true,
	}
}

// ValidationError represents a single password policy violation
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult holds all violations found for one password
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// FirstMessage returns the message of the first violation, or "".
func (r ValidationResult) FirstMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Validate checks a password. userAttributes are names and email of the account holder.
func (v *PasswordValidator) Validate(password string, userAttributes ...string) ValidationResult {
	var errors []ValidationError

	if utf8.RuneCountInString(password) < v.MinLength {
		errors = append(errors, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long", v.MinLength),
		})
	}

	if len(password) > MaxPasswordBytes {
		errors = append(errors, ValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("Password cannot be longer than %d bytes", MaxPasswordBytes),
		})
	}

	if isEntirelyNumeric(password) {
		errors = append(errors, ValidationError{
			Code:    "entirely_numeric",
			Message: "Password cannot be entirely numeric",
		})
	}

	if v.CheckCommonPasswords && isCommonPassword(password) {
		errors = append(errors, ValidationError{
			Code:    "common_password",
			Message: "This password is too common, please choose a more secure one",
		})
	}

	if v.CheckUserSimilarity && isSimilarToUserAttributes(password, expandAttributes(userAttributes)) {
		errors = append(errors, ValidationError{
			Code:    "too_similar",
			Message: "Password is too similar to your personal information",
		})
	}

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// expandAttributes adds the local part of email addresses and drops short values.
func expandAttributes(attributes []string) []string {
	var out []string
	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if local, _, ok := strings.Cut(attr, "@"); ok && len(local) >= minAttributeLength {
			out = append(out, local)
		}
		if len(attr) >= minAttributeLength {
			out = append(out, attr)
		}
	}
	return out
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

func isCommonPassword(password string) bool {
	_, exists := commonPasswords[strings.ToLower(password)]
	return exists
}

func isSimilarToUserAttributes(password string, attributes []string) bool {
	passwordLower := strings.ToLower(password)

	for _, attr := range attributes {
		if strings.Contains(passwordLower, attr) || strings.Contains(attr, passwordLower) {
			return true
		}
		if similarity(passwordLower, attr) > 0.7 {
			return true
		}
	}

	return false
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	return float64(longestCommonSubsequence(a, b)) / float64(max(len(a), len(b)))
}

func longestCommonSubsequence(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

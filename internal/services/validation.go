package services

import (
	"fmt"
	"strings"

	"github.com/knowledgepathways/backend/internal/platform/apierr"
)

const minPasswordLength = 8

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}

func validateRegistration(email, password, fullName string) *apierr.Error {
	if !validEmail(email) {
		return apierr.Invalid("invalid_email", fmt.Errorf("email %q is not a valid address", email))
	}
	if len(password) < minPasswordLength {
		return apierr.Invalid("weak_password", fmt.Errorf("password must be at least %d characters", minPasswordLength))
	}
	if strings.TrimSpace(fullName) == "" {
		return apierr.Invalid("missing_name", fmt.Errorf("full name is required"))
	}
	return nil
}

package loadtest

import (
	"github.com/google/uuid"
)

// generateEmails returns n distinct student emails under domain.
func generateEmails(n int, domain string) []string {
	emails := make([]string, n)
	for i := range emails {
		emails[i] = "student-" + uuid.NewString() + "@" + domain
	}
	return emails
}

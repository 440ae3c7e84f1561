package pkg

import "github.com/google/uuid"

// GenerateUserID - generates an identity for clients that connect without one.
func GenerateUserID() string {
	return "anon-" + uuid.NewString()
}

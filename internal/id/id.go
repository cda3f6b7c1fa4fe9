package id

import "crypto/rand"

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID creates a unique 16-character alphanumeric entity ID.
// Session tokens are not generated here; those are UUIDs issued by the
// auth service.
func GenerateID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = alphabet[b[i]%byte(len(alphabet))]
	}
	return string(b)
}

package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost factor used when a request does not carry
// its own. 12 keeps a single hash in the hundreds-of-milliseconds range,
// which is exactly why hashing runs on the pool and not the request path.
const DefaultCost = 12

// BcryptExecutor is the slow operation behind the hash pool. It is
// stateless and safe for concurrent use by every worker.
type BcryptExecutor struct {
	// Cost overrides DefaultCost when positive. Tests lower it to
	// bcrypt.MinCost to keep hashing fast.
	Cost int
}

func (e BcryptExecutor) Hash(plaintext string, cost int) (string, error) {
	if cost <= 0 {
		cost = e.Cost
	}
	if cost <= 0 {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether plaintext matches hash. A mismatch is a normal
// false result; only a malformed hash or similar is an error.
func (e BcryptExecutor) Compare(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

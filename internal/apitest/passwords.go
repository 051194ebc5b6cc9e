package apitest

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost keeps hashing fast in tests.
const passwordCost = bcrypt.MinCost

func hashPassword(pw string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), passwordCost)
	if err != nil {
		panic(fmt.Sprintf("apitest: failed to hash password: %v", err))
	}
	return string(hash)
}

func verifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(pw)) == nil
}

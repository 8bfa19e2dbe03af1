package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt only hashes the first 72 bytes; longer inputs are truncated
// explicitly so hashing and verification agree.
const maxPasswordLen = 72

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordLen {
		password = password[:maxPasswordLen]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	if len(password) > maxPasswordLen {
		password = password[:maxPasswordLen]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Package cryptox hashes and verifies login passwords.
package cryptox

import (
	"crypto/subtle"
	"strings"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const SaltLen = 16

func DeriveKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
	return x
}

// HashPassword returns an argon2id hash of password with a fresh salt.
func HashPassword(password string) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(SaltLen)
	return DeriveKey([]byte(password), salt), salt
}

// IsBcrypt reports whether hash is a bcrypt hash, the format of password
// files written by older deployments. Such hashes carry their own salt.
func IsBcrypt(hash string) bool {
	if !strings.HasPrefix(hash, "$2") {
		return false
	}
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}

// VerifyPassword checks password against a stored hash. An empty salt
// means hash is bcrypt.
func VerifyPassword(password string, hash, salt []byte) bool {
	if len(hash) == 0 {
		return false
	}
	if len(salt) == 0 {
		return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	}
	candidate := DeriveKey([]byte(password), salt)
	return subtle.ConstantTimeCompare(hash, candidate) == 1
}

// Package hasher хеширует пароли через bcrypt.
package hasher

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is fixed; callers cannot weaken it per call.
const Cost = bcrypt.DefaultCost

// * Hash возвращает bcrypt-хеш пароля, соль новая на каждый вызов
func Hash(plain string) ([]byte, error) {
	const op = "hasher.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return hash, nil
}

// * Verify сравнивает пароль с хешем. Испорченный хеш дает false
func Verify(plain string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plain)) == nil
}

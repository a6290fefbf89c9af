package hasher

import "golang.org/x/crypto/bcrypt"

// Hasher is the pluggable password-hashing capability. Implementations must
// be slow, salted and one-way; Compare must not be a plaintext comparison.
type Hasher interface {
	Hash(raw string) (string, error)
	Compare(hash, raw string) error
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(raw string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare runs bcrypt's constant-time hash comparison.
func (h *BcryptHasher) Compare(hash, raw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
}

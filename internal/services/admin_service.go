package services

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// TokenSigner mints a signed session token with the given lifetime.
type TokenSigner func(ttl time.Duration) (string, error)

// AdminService authenticates the operator who runs the out-of-band
// evaluation passes and account provisioning. There is a single admin
// identity, configured as a bcrypt hash; an empty hash disables the whole
// admin surface.
type AdminService struct {
	passwordHash []byte
	signToken    TokenSigner
	tokenTTL     time.Duration
}

func NewAdminService(passwordHash string, signer TokenSigner) *AdminService {
	return &AdminService{
		passwordHash: []byte(passwordHash),
		signToken:    signer,
		tokenTTL:     12 * time.Hour,
	}
}

// Login verifies the password against the configured hash and returns a
// signed session token.
func (s *AdminService) Login(password string) (string, error) {
	if len(s.passwordHash) == 0 {
		return "", NewUnauthorizedError("admin access is not configured")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return "", NewInvalidError("token signer not configured")
	}
	return s.signToken(s.tokenTTL)
}

package driven

import "github.com/custodia-labs/tender-rag/internal/core/domain"

// AuthAdapter handles authentication cryptographic operations.
// Tokens are stateless; there is no session persistence.
type AuthAdapter interface {
	// Password operations
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool

	// Token operations
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}

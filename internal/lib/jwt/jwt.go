package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessAuth is the only access class issued today.
const AccessAuth = "auth"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token secret is empty")
)

type Claims struct {
	AccountID string `json:"_id"`
	Access    string `json:"access"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a server-held HMAC secret.
// Tokens carry no expiry: they stay valid until revoked from the account.
type Codec struct {
	secret []byte
	parser *jwt.Parser
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	return &Codec{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// * Sign выпускает токен для аккаунта. jti делает каждый токен уникальным
func (c *Codec) Sign(accountID, access string) (string, error) {
	const op = "jwt.Sign"

	claims := Claims{
		AccountID: accountID,
		Access:    access,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return token, nil
}

// * Verify проверяет подпись и возвращает claims. Любая ошибка -> ErrInvalidToken
func (c *Codec) Verify(tokenStr string) (Claims, error) {
	const op = "jwt.Verify"

	var claims Claims

	token, err := c.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%s: %w: %w", op, ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.AccountID == "" || claims.Access == "" {
		return Claims{}, fmt.Errorf("%s: %w: missing claims", op, ErrInvalidToken)
	}

	return claims, nil
}

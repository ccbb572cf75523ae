// Package auth verifies the HMAC-signed access tokens attached to each
// request and propagates the authenticated user id. Issuing sessions
// (signup/login) is owned by the external auth layer; only token
// verification and minting live here.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalUserID is the fiber locals key carrying the verified user id.
const LocalUserID = "userId"

// CookieName is the cookie the web client stores its token in.
const CookieName = "jwt"

var ErrInvalidToken = errors.New("auth: invalid token")

// Claims extends the registered claims with the chat identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

type Verifier struct {
	key []byte
}

func NewVerifier(key string) *Verifier {
	return &Verifier{key: []byte(key)}
}

// Mint issues a token for userID. Used by login flows and tests.
func (v *Verifier) Mint(userID, email string, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		UserID: userID,
		Email:  email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// Parse verifies the token signature and expiry and returns the claims.
func (v *Verifier) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.key, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware rejects requests without a valid token and stores the
// user id in locals for downstream handlers.
func (v *Verifier) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(CookieName)
		if token == "" {
			header := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).SendString("You are not authenticated.")
		}
		claims, err := v.Parse(token)
		if err != nil {
			return c.Status(fiber.StatusForbidden).SendString("Token is not valid.")
		}
		c.Locals(LocalUserID, claims.UserID)
		return c.Next()
	}
}

// UserID returns the verified identity stored by Middleware.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

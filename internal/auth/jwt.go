// Package auth turns a bearer token into the opaque owner id every engine
// scopes its reads and writes by.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errSigningMethod = errors.New("invalid signing method")

// Middleware accepts "Authorization: Bearer <HS256 JWT>" and stores the
// user_id claim in locals under both user_id and userID.
func Middleware(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := ParseToken(secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals("user_id", userID)
		c.Locals("userID", userID)
		return c.Next()
	}
}

// ParseToken validates signature and expiry and returns the user_id claim.
func ParseToken(secret []byte, raw string) (string, error) {
	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errSigningMethod
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", errors.New("user_id missing")
	}
	return userID, nil
}

// IssueToken signs an HS256 token for userID. A zero ttl means no expiry.
func IssueToken(secret []byte, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
	}
	if ttl > 0 {
		claims["exp"] = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// DevTokenHandler hands out tokens without credentials. Mount it only when
// ENV=dev; real tokens are issued elsewhere.
func DevTokenHandler(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Query("user_id"))
		if userID == "" {
			userID = uuid.NewString()
		}
		signed, err := IssueToken(secret, userID, 24*time.Hour, time.Now())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not sign token")
		}
		return c.JSON(fiber.Map{"token": signed, "user_id": userID})
	}
}

package middlewares

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// Claims is our custom JWT payload (subject=userID, plus tenant schema and role).
type Claims struct {
	Schema string `json:"schema"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth signs and verifies HS256 bearer tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
}

func NewAuth(secret string, ttl time.Duration) (*Auth, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("JWT secret not configured (set JWT_SECRET_KEY)")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Auth{secret: []byte(secret), ttl: ttl}, nil
}

// IsAuthenticatedHeader validates a Bearer token, enforces HS256, and populates
// c.Locals("userID","schema","role"). The user context carries the tenant schema
// and the ledger actor.
func (a *Auth) IsAuthenticatedHeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(strings.ToLower(h), strings.ToLower(bearerPrefix)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "missing/invalid Authorization header"})
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid bearer token"})
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
		}
		if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.Schema) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "token missing subject/schema"})
		}

		c.Locals("userID", claims.Subject)
		c.Locals("schema", claims.Schema)
		c.Locals("role", claims.Role)

		ctx := database.WithSchema(c.UserContext(), claims.Schema)
		ctx = ledger.WithActor(ctx, ledger.Actor{ID: claims.Subject, Type: claims.Role})
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireAdmin rejects tokens without the admin role. Run after IsAuthenticatedHeader.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals("role").(string); role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin role required")
		}
		return c.Next()
	}
}

// GenerateJWT signs a new HS256 token for the given user.
func (a *Auth) GenerateJWT(userID, schema, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Schema: schema,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

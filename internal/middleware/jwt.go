package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/appraisal-go-api/internal/models"
	"github.com/noah-isme/appraisal-go-api/internal/utils"
)

const tokenLeeway = 30 * time.Second

var (
	errMissingSubject = errors.New("token has no subject")
	errUnknownRole    = errors.New("token carries an unknown role")
)

var actorRoles = map[string]struct{}{
	models.RoleFaculty:   {},
	models.RoleHOD:       {},
	models.RolePrincipal: {},
	models.RoleAdmin:     {},
}

// ActorClaims is the token payload issued to faculty, department heads, the
// principal and admins. The subject carries the faculty id; older tokens use
// user_id instead.
type ActorClaims struct {
	jwt.RegisteredClaims
	UserID       numericID `json:"user_id,omitempty"`
	Role         string    `json:"role,omitempty"`
	Roles        []string  `json:"roles,omitempty"`
	DepartmentID numericID `json:"department_id,omitempty"`
}

// ActorID resolves the faculty id from sub, falling back to user_id.
func (c ActorClaims) ActorID() (uint, error) {
	if c.Subject != "" {
		id, err := strconv.ParseUint(strings.TrimSpace(c.Subject), 10, 64)
		if err != nil || id == 0 {
			return 0, errMissingSubject
		}
		return uint(id), nil
	}
	if c.UserID > 0 {
		return uint(c.UserID), nil
	}
	return 0, errMissingSubject
}

// ActorRole returns the lower-cased workflow role. An empty result means the
// token had no role; RequireRole rejects those requests later.
func (c ActorClaims) ActorRole() (string, error) {
	candidates := append([]string{c.Role}, c.Roles...)
	for _, candidate := range candidates {
		role := strings.ToLower(strings.TrimSpace(candidate))
		if role == "" {
			continue
		}
		if _, ok := actorRoles[role]; !ok {
			return "", errUnknownRole
		}
		return role, nil
	}
	return "", nil
}

// numericID accepts ids encoded either as JSON numbers or numeric strings.
type numericID uint

func (n *numericID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	var value json.Number
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	parsed, err := strconv.ParseUint(value.String(), 10, 64)
	if err != nil {
		return err
	}
	*n = numericID(parsed)
	return nil
}

// JWTProtected validates HMAC-signed bearer tokens and stores the actor's id,
// role and department in the request locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
		jwt.WithLeeway(tokenLeeway),
		jwt.WithIssuedAt(),
	)
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		var claims ActorClaims
		if _, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		actorID, err := claims.ActorID()
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}
		role, err := claims.ActorRole()
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals("user_id", actorID)
		if role != "" {
			c.Locals("user_role", role)
		}
		if claims.DepartmentID > 0 {
			c.Locals("department_id", uint(claims.DepartmentID))
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

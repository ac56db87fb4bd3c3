package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/validation"
)

// ContextSubject is the Gin context key holding the token subject.
const ContextSubject = "auth_subject"

// AuthConfig configures bearer-token authentication with HS256 JWTs.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Secret  string `yaml:"secret" mapstructure:"secret"`
	// Issuer, when set, must match the token's iss claim.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
}

func (c *AuthConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	v := validation.New()
	v.Custom(len(c.Secret) >= 32, "server.auth.secret", "must be at least 32 characters")
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Auth rejects requests without a valid bearer token. It is a no-op when
// cfg.Enabled is false.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	parser := gojwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, errors.Unauthorized("authorization header required"))
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			abort(c, errors.Unauthorized("invalid authorization header format"))
			return
		}

		claims := &gojwt.RegisteredClaims{}
		if _, err := parser.ParseWithClaims(token, claims, func(*gojwt.Token) (interface{}, error) {
			return key, nil
		}); err != nil {
			abort(c, errors.InvalidToken().WithCause(err))
			return
		}
		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

// SignToken issues an HS256 token for subject valid for ttl.
func SignToken(cfg AuthConfig, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := gojwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    cfg.Issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

func abort(c *gin.Context, err *errors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}

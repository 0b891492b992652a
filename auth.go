package tsengine

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const adminContextKey = "admin"

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		loginAttempts.WithLabelValues("limited").Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many login attempts, try again later")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		a.loginLimiter.Record(ip)
		loginAttempts.WithLabelValues("failed").Inc()
		return ErrUnauthorized
	}
	user := req.Username
	if user == "" {
		user = req.Email
	}
	if !a.checkCredentials(user, req.Password) {
		a.loginLimiter.Record(ip)
		loginAttempts.WithLabelValues("failed").Inc()
		return ErrUnauthorized
	}

	token, exp, err := a.issueToken(user, time.Now())
	if err != nil {
		return err
	}
	loginAttempts.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp})
}

// checkCredentials always runs bcrypt so a wrong username costs the same as
// a wrong password.
func (a *App) checkCredentials(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.Config.AdminUsername)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	return userOK && passOK
}

func (a *App) issueToken(subject string, now time.Time) (string, time.Time, error) {
	exp := now.Add(a.Config.TokenTTL).UTC().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Config.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// parseToken returns the subject of a valid, unexpired HS256 token.
func (a *App) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(a.Config.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}
	if claims.Subject != a.Config.AdminUsername {
		return "", ErrUnauthorized
	}
	return claims.Subject, nil
}

// requireAdmin rejects requests without a valid bearer token. Every failure
// produces the same response.
func (a *App) requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || raw == "" {
				return ErrUnauthorized
			}
			sub, err := a.parseToken(strings.TrimSpace(raw))
			if err != nil {
				return ErrUnauthorized
			}
			c.Set(adminContextKey, sub)
			return next(c)
		}
	}
}

// rateLimit answers 429 once the client IP exceeds l.
func rateLimit(l *RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, try again later")
			}
			return next(c)
		}
	}
}

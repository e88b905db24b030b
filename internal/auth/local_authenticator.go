package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	defaultExpirationPeriod = 30 * 24 // 30 days
	issuer                  = "kaamsetu"
)

type userClaims struct {
	Role  string `json:"role"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// LocalAuthenticator validates HS256 tokens signed with a shared key.
type LocalAuthenticator struct {
	signingKey []byte
}

func NewLocalAuthenticator(signingKey string) (*LocalAuthenticator, error) {
	if signingKey == "" {
		return nil, errors.New("local authentication requires a signing key")
	}
	return &LocalAuthenticator{signingKey: []byte(signingKey)}, nil
}

// GenerateToken signs a token for the user. Used by tooling and tests.
func (l *LocalAuthenticator) GenerateToken(user User) (string, error) {
	claims := userClaims{
		Role:  string(user.Role),
		Name:  user.Name,
		Phone: user.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(defaultExpirationPeriod * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(l.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign user token: %s", err)
	}

	return signedToken, nil
}

func (l *LocalAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithIssuedAt(), jwt.WithExpirationRequired())

	claims := &userClaims{}
	t, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return l.signingKey, nil
	})
	if err != nil {
		zap.S().Named("auth").Errorw("failed to parse or the token is invalid", "error", err)
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}

	if !t.Valid {
		zap.S().Named("auth").Error("failed to parse or the token is invalid")
		return User{}, fmt.Errorf("failed to parse or validate token")
	}

	user := User{
		ID:    claims.Subject,
		Role:  Role(claims.Role),
		Name:  claims.Name,
		Phone: claims.Phone,
	}
	if user.ID == "" {
		return User{}, errors.New("token has no subject")
	}
	if !user.Role.Valid() {
		return User{}, fmt.Errorf("token has unknown role %q", claims.Role)
	}

	return user, nil
}

func (l *LocalAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := r.Header.Get("Authorization")
		if accessToken == "" || len(accessToken) < len("Bearer ") {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		accessToken = accessToken[len("Bearer "):]
		user, err := l.Authenticate(accessToken)
		if err != nil {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := NewUserContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

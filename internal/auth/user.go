package auth

import (
	"context"

	"go.uber.org/zap"
)

type Role string

const (
	RoleWorker   Role = "worker"
	RoleEmployer Role = "employer"
)

func (r Role) Valid() bool {
	return r == RoleWorker || r == RoleEmployer
}

type userKeyType struct{}

var (
	userKey userKeyType
)

// User is the authenticated identity attached to every request.
type User struct {
	ID    string
	Role  Role
	Name  string
	Phone string
}

func (u User) IsEmployer() bool {
	return u.Role == RoleEmployer
}

func (u User) IsWorker() bool {
	return u.Role == RoleWorker
}

func UserFromContext(ctx context.Context) (User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return User{}, false
	}
	return val.(User), true
}

func MustHaveUser(ctx context.Context) User {
	user, found := UserFromContext(ctx)
	if !found {
		zap.S().Named("auth").Panic("failed to find user in context")
	}
	return user
}

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

package middleware

import (
	"context"
	"net/http"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

const sessionCookie = "connect.sid"

// UserInfo is the user a request was authenticated as.
type UserInfo struct {
	ID   string
	Name string
}

// GetUserInfo retrieves the user information from the request context. It
// returns nil for guests.
func GetUserInfo(ctx context.Context) *UserInfo {
	if userInfo, ok := ctx.Value(userContextKey).(*UserInfo); ok {
		return userInfo
	}
	return nil
}

// SetUserInfo adds the user information to the request context.
func SetUserInfo(ctx context.Context, userInfo *UserInfo) context.Context {
	return context.WithValue(ctx, userContextKey, userInfo)
}

// Authenticate marks requests carrying the connect.sid cookie sid as made by
// user. An empty sid accepts any session cookie.
func Authenticate(sid string, user *UserInfo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(sessionCookie); err == nil && (sid == "" || cookie.Value == sid) {
				r = r.WithContext(SetUserInfo(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

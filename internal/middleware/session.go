// Package middleware provides the HTTP middleware stack: holder session
// identity, Redis rate limiting and seat-map response caching.
package middleware

import (
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
)

// SessionHeader carries the holder session token.  The client echoes it
// back on every request; locks are owned by the session, not by an
// authenticated user (a cashier terminal and an anonymous browser tab
// are equally valid holders).
const SessionHeader = "X-Session-Token"

const holderKey = "holder"

// HolderSession resolves the requesting client's holder id.  A valid
// session token is accepted as-is; a missing or invalid token mints a
// fresh guest session whose signed token is returned in the response
// header so the polling client adopts it for subsequent requests.
// Signing prevents a client from forging another session's holder id
// and releasing locks it does not own.
func HolderSession(secret string) echo.MiddlewareFunc {
    key := []byte(secret)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            holder := parseSession(c.Request().Header.Get(SessionHeader), key)
            if holder == "" {
                holder = uuid.NewString()
                if signed, err := signSession(holder, key); err == nil {
                    c.Response().Header().Set(SessionHeader, signed)
                }
            }
            c.Set(holderKey, holder)
            return next(c)
        }
    }
}

// Holder returns the holder id resolved by HolderSession, or "" when
// the middleware did not run.
func Holder(c echo.Context) string {
    if v, ok := c.Get(holderKey).(string); ok {
        return v
    }
    return ""
}

func parseSession(token string, key []byte) string {
    if token == "" {
        return ""
    }
    tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
        return key, nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
    if err != nil || !tok.Valid {
        return ""
    }
    if cl, ok := tok.Claims.(jwt.MapClaims); ok {
        if sid, ok := cl["sid"].(string); ok && sid != "" {
            return sid
        }
    }
    return ""
}

func signSession(sid string, key []byte) (string, error) {
    claims := jwt.MapClaims{
        "sid": sid,
        "iat": time.Now().Unix(),
    }
    return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

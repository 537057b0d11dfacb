package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of the signed session cookie.
type SessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

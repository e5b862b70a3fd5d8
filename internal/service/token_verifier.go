package service

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// La identidad la emite un servicio externo; acá solo se validan los access
// tokens que llegan con cada request.
var ErrJWTInvalid = errors.New("jwt invalid")

type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenVerifier valida access tokens HMAC firmados por el emisor externo.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Enabled reporta si hay secreto configurado; sin secreto el servidor corre
// abierto (despliegues locales).
func (v *TokenVerifier) Enabled() bool {
	return len(v.secret) > 0
}

func (v *TokenVerifier) Verify(tokenString string) (Claims, error) {
	if !v.Enabled() || tokenString == "" {
		return Claims{}, ErrJWTInvalid
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrJWTInvalid
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !token.Valid || claims.UserID == "" {
		return Claims{}, ErrJWTInvalid
	}
	if claims.TokenType != "" && claims.TokenType != "access" {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}

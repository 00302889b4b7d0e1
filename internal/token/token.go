package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims del token de sesion: solo el codigo de usuario.
type Claims struct {
	jwt.RegisteredClaims
	UserCode string `json:"user_code"`
}

const tokenExp = time.Hour * 24 * 30

// TODO: la clave tiene que venir de la config, no del fuente
var secretKey = []byte("nrd-operaciones")

var ErrInvalidToken = errors.New("invalid token")

// BuildToken emite un JWT firmado para el usuario.
func BuildToken(userCode string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenExp)),
		},
		UserCode: userCode,
	})

	return token.SignedString(secretKey)
}

// GetUserCode valida el token y devuelve el codigo de usuario.
func GetUserCode(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return secretKey, nil
		})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	return claims.UserCode, nil
}

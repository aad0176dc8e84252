package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles de planta reconocidos por el servicio.
const (
	RoleSupervisor = "supervisor" // todas las etapas
	RoleAlmacen    = "almacen"    // Store 1 / Store 2
	RoleProduccion = "produccion" // cable, moldeo, producto terminado
	RoleDespacho   = "despacho"
)

// Claims incluye los claims estándar JWT más usuario, planta y rol.
// El rol viaja en el token para que el middleware RBAC no consulte otro servicio.
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	PlantID string `json:"plant_id"`
	Role    string `json:"role"`
}

// Generate genera un token firmado (HS256). En producción los emite el servicio de identidad;
// aquí se usa para herramientas y tests.
func Generate(secret, userID, plantID, role, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID:  userID,
		PlantID: plantID,
		Role:    role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}

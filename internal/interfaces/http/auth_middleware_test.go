package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/produccion-flow/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/produccion-flow/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testPlantID   = "planta-norte"
	testIssuer    = "produccion-flow-test"
	testExpMin    = 60
)

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para parsear el JWT y cargar locals
//   - RequireRole para autorizar el acceso
//   - Un handler dummy que devuelve 200 si pasa los middlewares
func buildTestApp(allowedRoles ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":   true,
				"role": apphttp.GetRole(c),
			})
		},
	)
	return app
}

// tokenForRole genera un JWT con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testPlantID, role, testIssuer, testExpMin)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_SupervisorAccedeRutaSupervisor(t *testing.T) {
	app := buildTestApp(pkgjwt.RoleSupervisor)
	resp := doRequest(t, app, tokenForRole(t, pkgjwt.RoleSupervisor))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, pkgjwt.RoleSupervisor, body["role"])
}

func TestRequireRole_DespachoAccedeRutaMultiRol(t *testing.T) {
	app := buildTestApp(pkgjwt.RoleSupervisor, pkgjwt.RoleDespacho)
	resp := doRequest(t, app, tokenForRole(t, pkgjwt.RoleDespacho))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_AlmacenBloqueadoEnRutaSupervisor(t *testing.T) {
	app := buildTestApp(pkgjwt.RoleSupervisor)
	resp := doRequest(t, app, tokenForRole(t, pkgjwt.RoleAlmacen))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	app := buildTestApp(pkgjwt.RoleSupervisor)
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, testPlantID, "", testIssuer, testExpMin)
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_ROLE")
}

func TestRequireRole_SinAuthHeader_Retorna401(t *testing.T) {
	app := buildTestApp(pkgjwt.RoleSupervisor)
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestRequireRole_TokenInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(pkgjwt.RoleSupervisor)
	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware: extracción de claims del token
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testJWTSecret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":  apphttp.GetUserID(c),
			"plant_id": apphttp.GetPlantID(c),
			"role":     apphttp.GetRole(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenForRole(t, pkgjwt.RoleProduccion))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testPlantID, body["plant_id"])
	assert.Equal(t, pkgjwt.RoleProduccion, body["role"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireStageAccess
// ──────────────────────────────────────────────────────────────────────────────

func buildStageApp() *fiber.App {
	app := fiber.New()
	app.Post("/stages/:stage",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireStageAccess(apphttp.DefaultStagePolicy()),
		func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) },
	)
	return app
}

func stageRequest(t *testing.T, app *fiber.App, stage, role string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/stages/"+stage, nil)
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequireStageAccess_PoliticaPorRol(t *testing.T) {
	app := buildStageApp()
	cases := []struct {
		stage, role string
		want        int
	}{
		{"STORE1", pkgjwt.RoleAlmacen, http.StatusNoContent},
		{"store2", pkgjwt.RoleAlmacen, http.StatusNoContent},
		{"CABLE_PRODUCTION", pkgjwt.RoleAlmacen, http.StatusForbidden},
		{"CABLE_PRODUCTION", pkgjwt.RoleProduccion, http.StatusNoContent},
		{"DISPATCH", pkgjwt.RoleProduccion, http.StatusForbidden},
		{"DISPATCH", pkgjwt.RoleDespacho, http.StatusNoContent},
		{"MOULDING", pkgjwt.RoleSupervisor, http.StatusNoContent},
		{"PAINTING", pkgjwt.RoleSupervisor, http.StatusBadRequest},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, stageRequest(t, app, tc.stage, tc.role), "%s / %s", tc.stage, tc.role)
	}
}

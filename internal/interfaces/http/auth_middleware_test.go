package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/obrador-api/internal/application/dto"
	"github.com/jhoicas/obrador-api/internal/domain/entity"
	apphttp "github.com/jhoicas/obrador-api/internal/interfaces/http"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testStoreID   = "tienda-centro"
	testIssuer    = "obrador-auth-test"
	testExpMin    = 60
)

// actorApp expone GET /actor (solo auth) y una ruta por cada combinación de roles del router.
func actorApp() *fiber.App {
	app := fiber.New()
	auth := apphttp.AuthMiddleware(testJWTSecret)
	app.Get("/actor", auth, func(c *fiber.Ctx) error {
		a := apphttp.GetActor(c)
		return c.JSON(fiber.Map{"user_id": a.UserID, "store_id": a.StoreID, "role": a.Role})
	})
	for path, roles := range routeRoles {
		app.Get(path, auth, apphttp.RequireRole(roles...), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusNoContent)
		})
	}
	return app
}

// routeRoles mismos conjuntos de roles que usa Router.
var routeRoles = map[string][]string{
	"/crear":      {entity.RoleStore, entity.RoleAdmin},
	"/mios":       {entity.RoleStore},
	"/todos":      {entity.RoleAdmin, entity.RolePlant, entity.RoleDeliverer},
	"/cola":       {entity.RoleAdmin, entity.RolePlant},
	"/estado":     {entity.RoleAdmin, entity.RolePlant, entity.RoleDeliverer},
	"/entregar":   {entity.RoleAdmin, entity.RoleStore, entity.RoleDeliverer},
	"/inventario": {entity.RoleAdmin, entity.RolePlant},
}

func get(t *testing.T, app *fiber.App, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestGetActor_TiendaYObrador(t *testing.T) {
	app := actorApp()

	got := decode[map[string]string](t, get(t, app, "/actor", bearer(t, "u-tienda", testStoreID, entity.RoleStore)))
	assert.Equal(t, map[string]string{"user_id": "u-tienda", "store_id": testStoreID, "role": entity.RoleStore}, got)

	got = decode[map[string]string](t, get(t, app, "/actor", bearer(t, "u-obrador", "", entity.RolePlant)))
	assert.Equal(t, "obrador", got["role"])
	assert.Empty(t, got["store_id"], "el personal del obrador no tiene tienda")
}

func TestAuthMiddleware_TiendaSinStoreID(t *testing.T) {
	resp := get(t, actorApp(), "/actor", bearer(t, "u-tienda", "", entity.RoleStore))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_STORE", decode[dto.ErrorResponse](t, resp).Code)
}

func TestAuthMiddleware_TokenRechazado(t *testing.T) {
	app := actorApp()
	cases := []struct {
		name, auth, code string
	}{
		{"sin header", "", "MISSING_TOKEN"},
		{"sin esquema Bearer", "Token abc", "INVALID_TOKEN"},
		{"firma inválida", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
	}
	for _, tc := range cases {
		resp := get(t, app, "/actor", tc.auth)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.name)
		assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, resp).Code, tc.name)
	}
}

func TestRequireRole_MatrizDelRouter(t *testing.T) {
	app := actorApp()
	tokens := map[string]string{
		entity.RoleStore:     bearer(t, "u-tienda", testStoreID, entity.RoleStore),
		entity.RolePlant:     bearer(t, "u-obrador", "", entity.RolePlant),
		entity.RoleDeliverer: bearer(t, "u-reparto", "", entity.RoleDeliverer),
		entity.RoleAdmin:     bearer(t, "u-admin", "", entity.RoleAdmin),
	}
	for path, allowed := range routeRoles {
		for role, tok := range tokens {
			want := http.StatusForbidden
			for _, r := range allowed {
				if r == role {
					want = http.StatusNoContent
				}
			}
			resp := get(t, app, path, tok)
			assert.Equal(t, want, resp.StatusCode, "%s con rol %s", path, role)
		}
	}
}

func TestRequireRole_TokenSinRol(t *testing.T) {
	resp := get(t, actorApp(), "/cola", bearer(t, "u-x", "", ""))
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_ROLE", decode[dto.ErrorResponse](t, resp).Code)
}

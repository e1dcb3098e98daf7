package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func privilegeApp(privileges []string, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if privileges != nil {
			c.Locals("user_privileges", privileges)
		}
		return c.Next()
	}, guard, func(c *fiber.Ctx) error {
		return c.SendStatus(204)
	})
	return app
}

func TestRequirePrivilege(t *testing.T) {
	cases := []struct {
		name       string
		privileges []string
		guard      fiber.Handler
		status     int
	}{
		{"granted", []string{"opname:view", "opname:count"}, RequirePrivilege("opname:count"), 204},
		{"missing", []string{"opname:view"}, RequirePrivilege("opname:complete"), 403},
		{"no locals", nil, RequirePrivilege("opname:view"), 403},
		{"any of", []string{"product:view"}, RequireAnyPrivilege("opname:view", "product:view"), 204},
		{"none of", []string{"dashboard:view"}, RequireAnyPrivilege("opname:view", "product:view"), 403},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := privilegeApp(tc.privileges, tc.guard).Test(httptest.NewRequest("GET", "/", nil), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
		})
	}
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	app := fiber.New()
	app.Get("/", RequireAuth(nil), func(c *fiber.Ctx) error { return c.SendStatus(204) })

	for _, header := range []string{"", "Token abc", "Bearer"} {
		req := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != 401 {
			t.Fatalf("header %q: expected 401, got %d", header, resp.StatusCode)
		}
	}
}

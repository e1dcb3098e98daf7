package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/service"
	"go-opname-ws/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var allOpnamePrivileges = []string{
	model.PrivOpnameView,
	model.PrivOpnameCreate,
	model.PrivOpnameCount,
	model.PrivOpnameComplete,
	model.PrivOpnameExport,
	model.PrivOpnameDelete,
	model.PrivProductView,
}

type apiFixture struct {
	app  *fiber.App
	db   *gorm.DB
	team *model.Team
}

// newAPI mounts the real handlers; the auth stand-in grants the given privileges
func newAPI(t *testing.T, privileges []string) *apiFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	team := testutil.SeedTeam(t, db, "Toko Maju")

	productRepo := repository.NewProductRepo(db)
	opnameRepo := repository.NewOpnameRepo(db)
	adjustmentRepo := repository.NewAdjustmentRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	opnameService := service.NewOpnameService(opnameRepo, productRepo, adjustmentRepo, db, nil, 0, nil)
	handlers := &Handlers{
		Auth:      NewAuthHandler(service.NewAuthService(userRepo, nil)),
		Dashboard: NewDashboardHandler(service.NewDashboardService(adjustmentRepo)),
		Product:   NewProductHandler(service.NewCatalogService(productRepo, adjustmentRepo, db, nil)),
		Opname:    NewOpnameHandler(opnameService, service.NewExportService(opnameRepo)),
		User:      NewUserHandler(service.NewUserService(userRepo, privilegeRepo, roleRepo)),
		Role:      NewRoleHandler(roleRepo, privilegeRepo),
	}

	fakeAuth := func(c *fiber.Ctx) error {
		c.Locals("user_id", uuid.NewString())
		c.Locals("user_name", "Sari")
		c.Locals("user_email", "sari@example.com")
		c.Locals("user_team_id", team.ID)
		c.Locals("user_privileges", privileges)
		return c.Next()
	}

	app := fiber.New()
	handlers.Register(app.Group("/api/v1"), fakeAuth)
	return &apiFixture{app: app, db: db, team: team}
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func (f *apiFixture) startSession(t *testing.T) string {
	t.Helper()
	status, body := f.do(t, "POST", "/api/v1/opname", map[string]interface{}{
		"title":         "Opname Toko",
		"location_type": "toko",
		"assigned_to":   []string{"Sari", "Budi"},
	})
	if status != 201 {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	data := body["data"].(map[string]interface{})
	return data["id"].(string)
}

func TestOpnameAPILifecycle(t *testing.T) {
	f := newAPI(t, allOpnamePrivileges)
	product := testutil.SeedProduct(t, f.db, f.team.ID, "MIE", model.LocationToko, 30,
		testutil.Unit("Dus", "12", 0), testutil.Unit("Pcs", "1", 1))

	id := f.startSession(t)
	recordPath := "/api/v1/opname/" + id + "/records/" + product.ID.String()

	status, body := f.do(t, "PUT", recordPath, map[string]interface{}{
		"unit_values": map[string]interface{}{"dus": 2, "pcs": "4"},
	})
	if status != 200 {
		t.Fatalf("upsert: %d %v", status, body)
	}
	data := body["data"].(map[string]interface{})
	if data["actual_stock"].(float64) != 28 || data["counted_by"] != "Sari" {
		t.Fatalf("unexpected record %v", data)
	}

	status, body = f.do(t, "GET", "/api/v1/opname/"+id+"/summary", nil)
	if status != 200 || body["counted_records"].(float64) != 1 {
		t.Fatalf("summary: %d %v", status, body)
	}

	status, body = f.do(t, "POST", "/api/v1/opname/"+id+"/complete", nil)
	if status != 200 || body["reconciled"].(float64) != 1 {
		t.Fatalf("complete: %d %v", status, body)
	}
	if got := testutil.ReloadProduct(t, f.db, product.ID).CurrentStock; got != 28 {
		t.Fatalf("expected stock 28, got %d", got)
	}

	status, _ = f.do(t, "POST", "/api/v1/opname/"+id+"/complete", nil)
	if status != 409 {
		t.Fatalf("second complete: expected 409, got %d", status)
	}
	status, _ = f.do(t, "PUT", recordPath, map[string]interface{}{"actual_stock": 1})
	if status != 409 {
		t.Fatalf("upsert after complete: expected 409, got %d", status)
	}
}

func TestOpnameAPIErrors(t *testing.T) {
	f := newAPI(t, allOpnamePrivileges)
	product := testutil.SeedProduct(t, f.db, f.team.ID, "MIE", model.LocationToko, 30)
	id := f.startSession(t)
	recordPath := "/api/v1/opname/" + id + "/records/" + product.ID.String()

	cases := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		field  string
	}{
		{"invalid json", "PUT", recordPath, "{", 400, ""},
		{"empty upsert", "PUT", recordPath, map[string]interface{}{}, 400, ""},
		{"negative stock", "PUT", recordPath, map[string]interface{}{"actual_stock": -1}, 400, "actual_stock"},
		{"bad unit value", "PUT", recordPath, map[string]interface{}{"unit_values": map[string]interface{}{"Pcs": "abc"}}, 400, "unit_values.Pcs"},
		{"missing title", "POST", "/api/v1/opname", map[string]interface{}{"location_type": "toko", "assigned_to": []string{"Sari"}}, 400, "title"},
		{"bad location", "POST", "/api/v1/opname", map[string]interface{}{"title": "X", "location_type": "kantor", "assigned_to": []string{"Sari"}}, 400, "location_type"},
		{"bad session id", "GET", "/api/v1/opname/not-a-uuid", nil, 400, ""},
		{"bad counted filter", "GET", "/api/v1/opname/" + id + "/records?counted=maybe", nil, 400, "counted"},
		{"unknown session", "GET", "/api/v1/opname/" + uuid.NewString(), nil, 404, ""},
		{"unknown product", "PUT", "/api/v1/opname/" + id + "/records/" + uuid.NewString(), map[string]interface{}{"actual_stock": 1}, 404, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := f.do(t, tc.method, tc.path, tc.body)
			if status != tc.status {
				t.Fatalf("expected %d, got %d %v", tc.status, status, body)
			}
			if tc.field != "" && body["field"] != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, body["field"])
			}
		})
	}
}

func TestOpnameAPIRequiresPrivilege(t *testing.T) {
	f := newAPI(t, []string{model.PrivOpnameView})

	status, body := f.do(t, "POST", "/api/v1/opname", map[string]interface{}{
		"title": "X", "location_type": "toko", "assigned_to": []string{"Sari"},
	})
	if status != 403 {
		t.Fatalf("expected 403, got %d %v", status, body)
	}

	status, _ = f.do(t, "GET", "/api/v1/opname", nil)
	if status != 200 {
		t.Fatalf("view should be allowed, got %d", status)
	}
}

func TestOpnameAPIExport(t *testing.T) {
	f := newAPI(t, allOpnamePrivileges)
	testutil.SeedProduct(t, f.db, f.team.ID, "MIE", model.LocationToko, 30)
	id := f.startSession(t)

	req := httptest.NewRequest("GET", "/api/v1/opname/"+id+"/export", nil)
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type %q", ct)
	}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) < 4 || string(raw[:2]) != "PK" {
		t.Fatalf("expected a zip payload")
	}
}

func TestOpnameAPIDelete(t *testing.T) {
	f := newAPI(t, allOpnamePrivileges)
	testutil.SeedProduct(t, f.db, f.team.ID, "MIE", model.LocationToko, 30)
	id := f.startSession(t)

	status, _ := f.do(t, "DELETE", "/api/v1/opname/"+id, nil)
	if status != 200 {
		t.Fatalf("delete: expected 200, got %d", status)
	}
	status, _ = f.do(t, "GET", "/api/v1/opname/"+id, nil)
	if status != 404 {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
	if n := testutil.CountRows(t, f.db, &model.OpnameRecord{}, ""); n != 0 {
		t.Fatalf("expected records removed, got %d", n)
	}
}

package service

import (
	"errors"
	"testing"

	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/testutil"

	"github.com/google/uuid"
)

type userFixture struct {
	svc   UserService
	staff *model.Role
	actor Actor
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	team := testutil.SeedTeam(t, db, "Toko Maju")

	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	if err := privilegeRepo.SeedDefaults(); err != nil {
		t.Fatalf("seed privileges: %v", err)
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	staff, err := roleRepo.FindByCode(model.RoleStaff)
	if err != nil {
		t.Fatalf("staff role: %v", err)
	}
	privileges, err := privilegeRepo.FindByCodes(model.StaffPrivileges)
	if err != nil {
		t.Fatalf("staff privileges: %v", err)
	}
	if err := roleRepo.ReplacePrivileges(staff, privileges); err != nil {
		t.Fatalf("assign privileges: %v", err)
	}
	staff, _ = roleRepo.FindByCode(model.RoleStaff)

	return &userFixture{
		svc:   NewUserService(repository.NewUserRepo(db), privilegeRepo, roleRepo),
		staff: staff,
		actor: Actor{UserID: uuid.NewString(), Name: "Admin", TeamID: team.ID},
	}
}

func (f *userFixture) create(t *testing.T, email string) *model.User {
	t.Helper()
	user, err := f.svc.CreateUser(&CreateUserRequest{
		Email:    email,
		Password: "rahasia123",
		FullName: "Sari",
		RoleID:   f.staff.ID,
	}, f.actor)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestCreateUserTakesRolePrivilegesAndTeam(t *testing.T) {
	f := newUserFixture(t)
	user := f.create(t, "sari@example.com")

	got, err := f.svc.GetUserByID(f.actor.TeamID, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TeamID != f.actor.TeamID {
		t.Fatalf("expected team %s, got %s", f.actor.TeamID, got.TeamID)
	}
	if len(got.Privileges) != len(model.StaffPrivileges) {
		t.Fatalf("expected staff privileges, got %v", got.Privileges)
	}

	if _, err := f.svc.CreateUser(&CreateUserRequest{
		Email: "sari@example.com", Password: "rahasia123", FullName: "Sari", RoleID: f.staff.ID,
	}, f.actor); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	f := newUserFixture(t)
	birth := "17-08-1990"
	cases := map[string]struct {
		req   CreateUserRequest
		field string
	}{
		"bad email":    {CreateUserRequest{Email: "x", Password: "rahasia123", FullName: "A", RoleID: f.staff.ID}, "email"},
		"short pass":   {CreateUserRequest{Email: "a@b.co", Password: "123", FullName: "A", RoleID: f.staff.ID}, "password"},
		"unknown role": {CreateUserRequest{Email: "a@b.co", Password: "rahasia123", FullName: "A", RoleID: 999}, "role_id"},
		"bad birth":    {CreateUserRequest{Email: "a@b.co", Password: "rahasia123", FullName: "A", RoleID: f.staff.ID, BirthDate: &birth}, "birth_date"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := tc.req
			_, err := f.svc.CreateUser(&req, f.actor)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tc.field {
				t.Fatalf("expected ValidationError on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestUserServiceHidesOtherTeams(t *testing.T) {
	f := newUserFixture(t)
	user := f.create(t, "sari@example.com")

	outsider := f.actor
	outsider.TeamID = uuid.New()

	if _, err := f.svc.GetUserByID(outsider.TeamID, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := f.svc.DeleteUser(user.ID, outsider); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	users, err := f.svc.GetAllUsers(outsider.TeamID)
	if err != nil || len(users) != 0 {
		t.Fatalf("expected no users for other team, got %d (%v)", len(users), err)
	}
}

func TestUpdateUserPrivilegesReplacesSet(t *testing.T) {
	f := newUserFixture(t)
	user := f.create(t, "sari@example.com")

	updated, err := f.svc.UpdateUserPrivileges(user.ID, []string{model.PrivOpnameView}, f.actor)
	if err != nil {
		t.Fatalf("update privileges: %v", err)
	}
	codes := updated.GetPrivilegeCodes()
	if len(codes) != 1 || codes[0] != model.PrivOpnameView {
		t.Fatalf("expected only opname:view, got %v", codes)
	}
}

func TestUpdateUserPrivilegesRejectsUnknownCode(t *testing.T) {
	f := newUserFixture(t)
	user := f.create(t, "sari@example.com")

	_, err := f.svc.UpdateUserPrivileges(user.ID, []string{model.PrivOpnameView, "opname:teleport"}, f.actor)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "privileges" {
		t.Fatalf("expected privileges ValidationError, got %v", err)
	}
	got, err := f.svc.GetUserByID(f.actor.TeamID, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Privileges) != len(model.StaffPrivileges) {
		t.Fatalf("privileges must be unchanged, got %v", got.Privileges)
	}
}

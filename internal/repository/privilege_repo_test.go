package repository

import (
	"errors"
	"sort"
	"testing"

	"go-opname-ws/internal/model"
	"go-opname-ws/internal/testutil"
)

func TestPrivilegeSeedIsIdempotentAndRefreshesNames(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewPrivilegeRepo(db)

	if err := db.Create(&model.Privilege{Code: model.PrivOpnameCount, Name: "Old name"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.SeedDefaults(); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}

	all, err := repo.FindAll()
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != len(model.DefaultPrivileges) {
		t.Fatalf("expected %d privileges, got %d", len(model.DefaultPrivileges), len(all))
	}
	if !sort.SliceIsSorted(all, func(i, j int) bool { return all[i].Code < all[j].Code }) {
		t.Fatalf("expected privileges ordered by code")
	}
	for _, p := range all {
		if p.Code == model.PrivOpnameCount && p.Name != "Count Opname Items" {
			t.Fatalf("expected refreshed name, got %q", p.Name)
		}
	}
}

func TestFindByCodesReportsUnknownCodes(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewPrivilegeRepo(db)
	if err := repo.SeedDefaults(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := repo.FindByCodes([]string{model.PrivOpnameView, model.PrivDashboardView})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 2 || got[0].Code != model.PrivDashboardView {
		t.Fatalf("expected two privileges ordered by code, got %+v", got)
	}

	if _, err := repo.FindByCodes([]string{model.PrivOpnameView, "opname:teleport"}); !errors.Is(err, ErrUnknownPrivilege) {
		t.Fatalf("expected ErrUnknownPrivilege, got %v", err)
	}
}

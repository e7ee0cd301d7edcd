package profiles_test

import (
	"testing"
	"time"

	"github.com/dalemusser/mentorhub/internal/app/store/profiles"
	"github.com/dalemusser/mentorhub/internal/domain/models"
	"github.com/dalemusser/mentorhub/internal/testutil"
)

func TestBuild_RoleConditionalFields(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := profiles.Data{Program: "Incubación", Experience: "10 años", Specialization: "Finanzas", CurriculumURL: "https://x/cv.pdf"}

	e := profiles.Build("u1", "Eva", models.RoleEmprendedor, d, now)
	if e.Program != "Incubación" || e.Experience != "" || e.Specialization != "" || e.CurriculumURL != "" {
		t.Errorf("emprendedor profile = %+v", e)
	}

	m := profiles.Build("u2", "Marta", models.RoleMentor, d, now)
	if m.Program != "Incubación" || m.Experience != "10 años" || m.Specialization != "Finanzas" || m.CurriculumURL == "" {
		t.Errorf("mentor profile = %+v", m)
	}

	a := profiles.Build("u3", "Admin", models.RoleAdmin, d, now)
	if a.Program != "" || a.Experience != "" {
		t.Errorf("admin profile = %+v", a)
	}
}

func TestStore_CreateOverwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profiles.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, "u1", "Primera", models.RoleEmprendedor, profiles.Data{Program: "A"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, "u1", "Segunda", models.RoleEmprendedor, profiles.Data{Program: "B"}); err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.FullName != "Segunda" || got.Program != "B" {
		t.Errorf("expected last writer to win, got %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profiles.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Get(ctx, "missing"); err != profiles.ErrNotFound {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}
}

func TestStore_ListAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := profiles.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, p := range []struct{ uid, role string }{
		{"m1", models.RoleMentor},
		{"e1", models.RoleEmprendedor},
		{"e2", models.RoleEmprendedor},
		{"a1", models.RoleAdmin},
	} {
		if _, err := store.Create(ctx, p.uid, p.uid, p.role, profiles.Data{}); err != nil {
			t.Fatalf("Create(%s) failed: %v", p.uid, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	list, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 4 || list[0].UID != "a1" {
		t.Errorf("expected newest first, got %d items starting with %q", len(list), list[0].UID)
	}

	counts, err := store.CountByRole(ctx)
	if err != nil {
		t.Fatalf("CountByRole failed: %v", err)
	}
	if counts[models.RoleEmprendedor] != 2 || counts[models.RoleMentor] != 1 || counts[models.RoleAdmin] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

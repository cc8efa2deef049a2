package budget

import (
	"errors"
	"math"
	"testing"

	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/db"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/project"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	p, err := project.Create(gdb, project.CreateOpts{Name: "Depot"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return gdb, p.ID
}

func TestCreate_DefaultsToOriginal(t *testing.T) {
	gdb, pid := setup(t)
	item, err := Create(gdb, CreateOpts{ProjectID: pid, Description: "Chargers", Amount: 42000})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.ItemType != models.BudgetOriginal {
		t.Errorf("ItemType = %q, want original", item.ItemType)
	}
}

func TestCreate_Validation(t *testing.T) {
	gdb, pid := setup(t)
	tests := []struct {
		name string
		opts CreateOpts
		want error
	}{
		{"blank description", CreateOpts{ProjectID: pid, Description: " ", Amount: 1}, apperr.ErrInvalid},
		{"nan amount", CreateOpts{ProjectID: pid, Description: "x", Amount: math.NaN()}, apperr.ErrInvalid},
		{"inf amount", CreateOpts{ProjectID: pid, Description: "x", Amount: math.Inf(1)}, apperr.ErrInvalid},
		{"bad type", CreateOpts{ProjectID: pid, Description: "x", Amount: 1, ItemType: "refund"}, apperr.ErrInvalid},
		{"missing project", CreateOpts{ProjectID: "nope", Description: "x", Amount: 1}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Create(gdb, tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("Create err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	gdb, pid := setup(t)
	for _, o := range []CreateOpts{
		{Description: "Chargers", Amount: 40000},
		{Description: "Trenching", Amount: 12500.5},
		{Description: "Extra conduit", Amount: 3000, ItemType: models.BudgetChangeOrder},
		{Description: "Credit", Amount: -500, ItemType: models.BudgetChangeOrder},
	} {
		o.ProjectID = pid
		if _, err := Create(gdb, o); err != nil {
			t.Fatalf("Create %s: %v", o.Description, err)
		}
	}
	s, err := ProjectSummary(gdb, pid)
	if err != nil {
		t.Fatalf("ProjectSummary: %v", err)
	}
	if s.Original != 52500.5 || s.ChangeOrders != 2500 || s.Total != 55000.5 || s.Items != 4 {
		t.Errorf("summary = %+v", s)
	}

	empty := Summarize(nil)
	if empty.Total != 0 || empty.Items != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	gdb, pid := setup(t)
	item, err := Create(gdb, CreateOpts{ProjectID: pid, Description: "Chargers", Amount: 100})
	if err != nil {
		t.Fatal(err)
	}

	amount := 250.0
	kind := models.BudgetChangeOrder
	got, err := Update(gdb, item.ID, UpdateOpts{Amount: &amount, ItemType: &kind})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Amount != 250 || got.ItemType != kind || got.Description != "Chargers" {
		t.Errorf("updated = %+v", got)
	}

	bad := math.NaN()
	if _, err := Update(gdb, item.ID, UpdateOpts{Amount: &bad}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("NaN update err = %v", err)
	}
	stored, _ := Get(gdb, item.ID)
	if stored.Amount != 250 {
		t.Errorf("stored amount = %v, want 250", stored.Amount)
	}

	if err := Delete(gdb, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := Delete(gdb, item.ID); !apperr.NotFound(err) {
		t.Errorf("second Delete err = %v", err)
	}
	items, _ := List(gdb, pid)
	if len(items) != 0 {
		t.Errorf("items left = %d", len(items))
	}
}

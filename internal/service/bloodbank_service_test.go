package service

import (
	"context"
	"errors"
	"testing"

	"github.com/hemolink/hemolink/internal/domain"
)

func TestBloodBankServiceCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.bankService()

	bank, err := svc.Create(ctx, CreateBankInput{
		Name:    "Central Blood Bank",
		Address: "1 Main St",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if bank.ID == 0 {
		t.Error("expected bank to be assigned an ID")
	}
	if bank.Status != domain.BloodBankActive {
		t.Errorf("expected new bank active, got %s", bank.Status)
	}
	if bank.UnitsOf(domain.BloodOPositive) != 0 {
		t.Error("expected empty inventory")
	}

	var verr *domain.ValidationError
	if _, err := svc.Create(ctx, CreateBankInput{}); !errors.As(err, &verr) {
		t.Errorf("expected validation error for missing name, got %v", err)
	}
}

func TestBloodBankServiceAdjustInventory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.bankService()

	bank, err := svc.Create(ctx, CreateBankInput{Name: "Central Blood Bank"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.AdjustInventory(ctx, bank.ID, domain.BloodONegative, 10)
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if got.UnitsOf(domain.BloodONegative) != 10 {
		t.Errorf("expected 10 units, got %d", got.UnitsOf(domain.BloodONegative))
	}

	got, err = svc.AdjustInventory(ctx, bank.ID, domain.BloodONegative, -4)
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if got.UnitsOf(domain.BloodONegative) != 6 {
		t.Errorf("expected 6 units after withdrawal, got %d", got.UnitsOf(domain.BloodONegative))
	}

	// Draining below zero is refused and leaves the level alone
	if _, err := svc.AdjustInventory(ctx, bank.ID, domain.BloodONegative, -7); !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory, got %v", err)
	}
	current, err := svc.GetByID(ctx, bank.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if current.UnitsOf(domain.BloodONegative) != 6 {
		t.Errorf("expected level unchanged at 6, got %d", current.UnitsOf(domain.BloodONegative))
	}

	var verr *domain.ValidationError
	if _, err := svc.AdjustInventory(ctx, bank.ID, "Z+", 1); !errors.As(err, &verr) {
		t.Errorf("expected validation error for unknown blood type, got %v", err)
	}

	if _, err := svc.AdjustInventory(ctx, 999, domain.BloodOPositive, 1); !errors.Is(err, domain.ErrBloodBankNotFound) {
		t.Errorf("expected ErrBloodBankNotFound, got %v", err)
	}
}

func TestBloodBankServiceUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.bankService()

	bank, err := svc.Create(ctx, CreateBankInput{Name: "Central Blood Bank", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Regional Blood Bank"
	status := domain.BloodBankInactive
	got, err := svc.Update(ctx, UpdateBankInput{BankID: bank.ID, Name: &name, Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != name {
		t.Errorf("expected renamed bank, got %s", got.Name)
	}
	if got.Status != domain.BloodBankInactive {
		t.Errorf("expected inactive, got %s", got.Status)
	}
	if got.Address != "1 Main St" {
		t.Errorf("expected address untouched, got %s", got.Address)
	}
}

func TestBloodBankServiceList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.bankService()

	active, err := svc.Create(ctx, CreateBankInput{Name: "Central Blood Bank"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	closed, err := svc.Create(ctx, CreateBankInput{Name: "Old Depot"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	status := domain.BloodBankInactive
	if _, err := svc.Update(ctx, UpdateBankInput{BankID: closed.ID, Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 banks, got %d", len(all))
	}

	operating, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(operating) != 1 || operating[0].ID != active.ID {
		t.Errorf("expected only the active bank, got %d", len(operating))
	}
}

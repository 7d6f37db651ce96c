package service

import (
	"context"
	"testing"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/lock"
)

func (f *fixture) sweeper(cfg SweepConfig) *ExpirySweeper {
	return NewExpirySweeper(f.repos.Request, f.store, f.locker, nil, f.logger, cfg)
}

func TestExpirySweeperRunOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sw := f.sweeper(DefaultSweepConfig())

	lapsed := f.createRequest(t, time.Now().UTC().Add(-time.Hour))
	matching := f.createRequest(t, time.Now().UTC().Add(-time.Hour))
	matching.Status = domain.RequestStatusMatching
	if err := f.repos.Request.Update(ctx, matching); err != nil {
		t.Fatalf("Update: %v", err)
	}
	fresh := f.createRequest(t, time.Now().UTC().Add(24*time.Hour))
	fulfilled := f.createRequest(t, time.Now().UTC().Add(-time.Hour))
	fulfilled.Status = domain.RequestStatusFulfilled
	if err := f.repos.Request.Update(ctx, fulfilled); err != nil {
		t.Fatalf("Update: %v", err)
	}

	result := sw.RunOnce(ctx)
	if result.Expired != 2 {
		t.Errorf("expected 2 expired, got %d", result.Expired)
	}
	if result.Errors != 0 {
		t.Errorf("expected no errors, got %d", result.Errors)
	}

	for _, id := range []int64{lapsed.ID, matching.ID} {
		got, err := f.repos.Request.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.Status != domain.RequestStatusExpired {
			t.Errorf("expected request %d Expired, got %s", id, got.Status)
		}
	}

	got, err := f.repos.Request.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.RequestStatusPending {
		t.Errorf("expected fresh request untouched, got %s", got.Status)
	}
	got, err = f.repos.Request.GetByID(ctx, fulfilled.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.RequestStatusFulfilled {
		t.Errorf("expected terminal request untouched, got %s", got.Status)
	}

	// A second run finds nothing left
	result = sw.RunOnce(ctx)
	if result.Expired != 0 {
		t.Errorf("expected idle second run, got %d expired", result.Expired)
	}
}

func TestExpirySweeperDryRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cfg := DefaultSweepConfig()
	cfg.DryRun = true
	sw := f.sweeper(cfg)

	lapsed := f.createRequest(t, time.Now().UTC().Add(-time.Hour))

	result := sw.RunOnce(ctx)
	if result.Expired != 1 {
		t.Errorf("expected 1 counted in dry run, got %d", result.Expired)
	}

	got, err := f.repos.Request.GetByID(ctx, lapsed.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.RequestStatusPending {
		t.Errorf("expected dry run to leave the request Pending, got %s", got.Status)
	}
}

func TestExpirySweeperBatchSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cfg := DefaultSweepConfig()
	cfg.BatchSize = 2
	sw := f.sweeper(cfg)

	for i := 0; i < 3; i++ {
		f.createRequest(t, time.Now().UTC().Add(-time.Hour))
	}

	result := sw.RunOnce(ctx)
	if result.Expired != 2 {
		t.Errorf("expected batch of 2, got %d", result.Expired)
	}
	if result.Remaining == 0 {
		t.Error("expected remaining work reported")
	}

	result = sw.RunOnce(ctx)
	if result.Expired != 1 {
		t.Errorf("expected 1 expired on the next run, got %d", result.Expired)
	}
}

func TestExpirySweeperSkipsWhenLockHeld(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sw := f.sweeper(DefaultSweepConfig())

	f.createRequest(t, time.Now().UTC().Add(-time.Hour))

	// Another process holds the sweep lock
	key := lock.Keys.ExpirySweep()
	acquired, err := f.locker.Acquire(ctx, key, time.Minute)
	if err != nil || !acquired {
		t.Fatalf("Acquire: %v %v", acquired, err)
	}

	result := sw.RunOnce(ctx)
	if result.Expired != 0 || result.Errors != 0 {
		t.Errorf("expected skipped run, got %+v", result)
	}

	if _, err := f.locker.Release(ctx, key); err != nil {
		t.Fatalf("Release: %v", err)
	}
	result = sw.RunOnce(ctx)
	if result.Expired != 1 {
		t.Errorf("expected sweep after lock released, got %d", result.Expired)
	}
}

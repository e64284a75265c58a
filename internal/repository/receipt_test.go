package repository

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestRepository(t *testing.T) *ReceiptRepository {
	t.Helper()

	repo, err := NewReceiptRepository(filepath.Join(t.TempDir(), "receipts.db"))
	if err != nil {
		t.Fatalf("failed to open receipt repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func paidReceipt(reference string) *ReceiptRecord {
	return &ReceiptRecord{
		Reference:     reference,
		Outcome:       "success",
		Channel:       "MTN",
		Nominee:       "Kofi Mensah",
		Category:      "Artist of the Year",
		Award:         "Ghana Music Awards",
		NumberOfVotes: 5,
		SettledAt:     time.Now(),
	}
}

func TestReceiptRepository_SaveAndGetByReference(t *testing.T) {
	repo := newTestRepository(t)

	if err := repo.Save(paidReceipt("ref-1")); err != nil {
		t.Fatalf("failed to save receipt: %v", err)
	}

	record, err := repo.GetByReference("ref-1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if record == nil {
		t.Fatal("expected a receipt")
	}
	if record.Nominee != "Kofi Mensah" || record.NumberOfVotes != 5 {
		t.Errorf("unexpected receipt: %+v", record)
	}
}

func TestReceiptRepository_GetByReferenceMiss(t *testing.T) {
	repo := newTestRepository(t)

	record, err := repo.GetByReference("ref-missing")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil for an unknown reference, got %+v", record)
	}
}

func TestReceiptRepository_ReferenceIsUnique(t *testing.T) {
	// One settlement, one receipt; recording the same reference twice is
	// a bug the database must catch.
	repo := newTestRepository(t)

	if err := repo.Save(paidReceipt("ref-1")); err != nil {
		t.Fatalf("failed to save receipt: %v", err)
	}
	if err := repo.Save(paidReceipt("ref-1")); err == nil {
		t.Error("expected the duplicate reference to be rejected")
	}
}

func TestReceiptRepository_GetByToken(t *testing.T) {
	repo := newTestRepository(t)

	record := paidReceipt("tok-abc")
	record.Token = "tok-abc"
	if err := repo.Save(record); err != nil {
		t.Fatalf("failed to save receipt: %v", err)
	}

	got, err := repo.GetByToken("tok-abc")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a receipt for the token")
	}
}

func TestReceiptRepository_ListRecentNewestFirst(t *testing.T) {
	repo := newTestRepository(t)

	older := paidReceipt("ref-old")
	older.SettledAt = time.Now().Add(-time.Hour)
	newer := paidReceipt("ref-new")

	if err := repo.Save(older); err != nil {
		t.Fatalf("failed to save receipt: %v", err)
	}
	if err := repo.Save(newer); err != nil {
		t.Fatalf("failed to save receipt: %v", err)
	}

	records, err := repo.ListRecent(10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(records))
	}
	if records[0].Reference != "ref-new" {
		t.Errorf("expected newest first, got %s", records[0].Reference)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
}

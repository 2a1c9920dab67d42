package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"merchlens/internal/records"
)

func testSettings(inputPath string) records.JobSettings {
	return records.JobSettings{
		InputPath:     inputPath,
		OutputPath:    inputPath + ".out.xlsx",
		ColumnMapping: records.ColumnMapping{Name: "Merchant"},
		StartRow:      2,
		EndRow:        100,
		Mode:          records.ModeBasic,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	input := filepath.Join(t.TempDir(), "merchants.xlsx")
	store := NewStore(input)

	snap := Snapshot{
		LastProcessedRow: 51,
		JobSettings:      testSettings(input),
		ProcessedRecords: []records.ResolvedRecord{
			{CleanedName: "Acme", Website: "https://acme.example", AccumulatedCost: 0.42},
			{Remarks: records.RemarkNotApplicable},
		},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, err := store.Load(input)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded == nil {
		t.Fatal("Load returned nil for an existing checkpoint")
	}
	if loaded.LastProcessedRow != 51 {
		t.Fatalf("last processed row %d", loaded.LastProcessedRow)
	}
	if len(loaded.ProcessedRecords) != 2 || loaded.ProcessedRecords[0].Website != "https://acme.example" {
		t.Fatalf("records not restored: %+v", loaded.ProcessedRecords)
	}
	if loaded.JobSettings.EndRow != 100 {
		t.Fatalf("settings not restored: %+v", loaded.JobSettings)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	input := filepath.Join(t.TempDir(), "merchants.xlsx")
	store := NewStore(input)

	snap, err := store.Load(input)
	if err != nil || snap != nil {
		t.Fatalf("expected nil, nil; got %v, %v", snap, err)
	}
}

func TestLoadIgnoresDifferentInputPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "merchants.xlsx")
	store := NewStore(input)

	if err := store.Save(Snapshot{LastProcessedRow: 10, JobSettings: testSettings(filepath.Join(dir, "other.xlsx"))}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	snap, err := store.Load(input)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if snap != nil {
		t.Fatalf("checkpoint for a different input should be ignored, got %+v", snap)
	}
}

func TestLoadDiscardsCorruptFile(t *testing.T) {
	input := filepath.Join(t.TempDir(), "merchants.xlsx")
	store := NewStore(input)

	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := store.Load(input)
	if err != nil || snap != nil {
		t.Fatalf("corrupt checkpoint should be discarded; got %v, %v", snap, err)
	}
}

func TestDeleteRemovesCheckpoint(t *testing.T) {
	input := filepath.Join(t.TempDir(), "merchants.xlsx")
	store := NewStore(input)

	if err := store.Save(Snapshot{LastProcessedRow: 5, JobSettings: testSettings(input)}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Fatal("checkpoint file should be gone")
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("deleting a missing checkpoint should succeed: %v", err)
	}
}

func TestAcquireRejectsSecondHolder(t *testing.T) {
	input := filepath.Join(t.TempDir(), "merchants.xlsx")
	first := NewStore(input)
	if err := first.Acquire(); err != nil {
		t.Fatalf("first Acquire returned error: %v", err)
	}
	defer first.Release()

	second := NewStore(input)
	if err := second.Acquire(); err == nil {
		second.Release()
		t.Fatal("second Acquire should fail while the lock is held")
	}
}

//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM scans_fts`).Scan(&count); err != nil {
		t.Fatalf("scans_fts table missing: %v", err)
	}
}

func TestFTS5_SearchByChannel(t *testing.T) {
	db := testDB(t)
	row := ScanRow{
		Path:      "fts.spm",
		Checksum:  "f1",
		Version:   "0x05120130",
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertScan(row, []ChannelRow{{Name: "Amplitude"}}); err != nil {
		t.Fatalf("UpsertScan: %v", err)
	}

	results, err := db.Search("Amplitude", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Path != "fts.spm" {
		t.Errorf("path = %q", results[0].Path)
	}
	if len(results[0].Channels) != 1 || results[0].Channels[0] != "Amplitude" {
		t.Errorf("channels = %v", results[0].Channels)
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertScan(ScanRow{Path: "gone.spm", Checksum: "g", Date: "vanishing", UpdatedAt: time.Now()}, nil)
	_ = db.DeleteScan("gone.spm")

	results, _ := db.Search("vanishing", 10)
	for _, r := range results {
		if r.Path == "gone.spm" {
			t.Error("deleted scan still in FTS index")
		}
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertScan(ScanRow{Path: "evo.spm", Checksum: "1", Date: "firstpass", UpdatedAt: now}, nil)
	_ = db.UpsertScan(ScanRow{Path: "evo.spm", Checksum: "2", Date: "secondpass", UpdatedAt: now}, nil)

	results, _ := db.Search("firstpass", 10)
	if len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ = db.Search("secondpass", 10)
	if len(results) != 1 {
		t.Errorf("FTS not updated: %+v", results)
	}
}

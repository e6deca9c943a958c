// Chronomap - Temporal-Spatial Query Engine for the Postime Time Machine
// Copyright 2026 Postime Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/postime/chronomap

package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/postime/chronomap/internal/record"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

const validDataset = `{
  "records": [
    {
      "id": "bridge-1",
      "geometry": {"type": "Point", "coordinates": [4.9, 52.37]},
      "valid_from": "1900-01-01T00:00:00Z",
      "valid_to": "1950-01-01T00:00:00Z",
      "attributes": {"name": "Old Bridge"}
    },
    {
      "id": "district-1",
      "geometry": {"type": "Polygon", "coordinates": [[[4.8,52.3],[5.0,52.3],[5.0,52.4],[4.8,52.3]]]},
      "valid_from": "1920-01-01T00:00:00Z"
    }
  ]
}`

func TestLoad(t *testing.T) {
	t.Parallel()

	store := record.NewMemStore()
	n, err := Load(context.Background(), writeDataset(t, validDataset), store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d, want 2", n)
	}

	rec, err := store.Get(context.Background(), "bridge-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Attrs["name"] != "Old Bridge" {
		t.Errorf("attrs = %v", rec.Attrs)
	}
	if rec.Valid.From == nil || rec.Valid.To == nil {
		t.Error("bridge-1 should have both interval bounds")
	}
}

func TestLoadRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	dup := `{"records": [
      {"id": "x", "geometry": {"type": "Point", "coordinates": [0, 0]}},
      {"id": "x", "geometry": {"type": "Point", "coordinates": [1, 1]}}
    ]}`

	_, err := Load(context.Background(), writeDataset(t, dup), record.NewMemStore())
	if err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Errorf("expected duplicate id error, got %v", err)
	}
}

func TestLoadRejectsEmptyID(t *testing.T) {
	t.Parallel()

	empty := `{"records": [
      {"id": "", "geometry": {"type": "Point", "coordinates": [0, 0]}}
    ]}`

	_, err := Load(context.Background(), writeDataset(t, empty), record.NewMemStore())
	if err == nil || !strings.Contains(err.Error(), "empty id") {
		t.Errorf("expected empty id error, got %v", err)
	}
}

func TestLoadRejectsInvalidInterval(t *testing.T) {
	t.Parallel()

	inverted := `{"records": [
      {"id": "x", "geometry": {"type": "Point", "coordinates": [0, 0]},
       "valid_from": "1950-01-01T00:00:00Z", "valid_to": "1900-01-01T00:00:00Z"}
    ]}`

	_, err := Load(context.Background(), writeDataset(t, inverted), record.NewMemStore())
	if err == nil {
		t.Error("expected invalid interval error")
	}
}

func TestLoadRejectsOutOfRangeGeometry(t *testing.T) {
	t.Parallel()

	bad := `{"records": [
      {"id": "x", "geometry": {"type": "Point", "coordinates": [200, 0]}}
    ]}`

	_, err := Load(context.Background(), writeDataset(t, bad), record.NewMemStore())
	if err == nil {
		t.Error("expected geometry validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"), record.NewMemStore())
	if err == nil {
		t.Error("expected error for missing file")
	}
}

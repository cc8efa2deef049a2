package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/chargeyard/internal/models"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Depot", "Depot_gantt.json"},
		{"Depot North  Yard", "Depot_North_Yard_gantt.json"},
		{"tab\there\nnewline", "tab_here_newline_gantt.json"},
		{"", "_gantt.json"},
	}
	for _, tt := range tests {
		if got := Filename(tt.name); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestWrite(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	kw := 150.0
	p := &models.Project{
		ID:           "p-1",
		Name:         "Depot",
		Client:       "Metro",
		OwnerID:      "owner",
		CreatedAt:    created,
		CustomFields: []models.CustomField{{ID: "f", Name: "kW", Type: models.FieldNumber}},
		Phases:       []models.Phase{{ID: "ph", Name: "Build", Color: "#000000"}},
		Tasks: []models.Task{{
			ID: "t", PhaseID: "ph", Name: "Pour pads", StartDate: "2024-01-05", EndDate: "2024-01-09",
			CustomFields: map[string]models.FieldValue{"f": {Type: models.FieldNumber, Number: &kw}},
		}},
	}
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "\n  \"name\": \"Depot\"") {
		t.Errorf("expected 2-space indentation, got:\n%s", out)
	}
	for _, absent := range []string{"owner", "progress"} {
		if strings.Contains(out, absent) {
			t.Errorf("export leaks %q", absent)
		}
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "name", "client", "createdAt", "customFields", "phases", "tasks"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	if string(doc["id"]) != `"p-1"` {
		t.Errorf("id = %s, want p-1", doc["id"])
	}
	if string(doc["createdAt"]) != `"2024-01-02T03:04:05Z"` {
		t.Errorf("createdAt = %s", doc["createdAt"])
	}
}

func TestWrite_EmptyProjectHasArrays(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &models.Project{Name: "Blank"}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "null") {
		t.Errorf("empty collections encoded as null:\n%s", buf.String())
	}
}

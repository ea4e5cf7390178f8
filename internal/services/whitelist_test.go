package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var testSchema = FieldSchema{
	"title":    {Kind: KindString},
	"coins":    {Kind: KindInt},
	"lat":      {Kind: KindFloat},
	"active":   {Kind: KindBool},
	"deadline": {Kind: KindTime, Nullable: true},
	"arrival":  {Kind: KindDate, Nullable: true},
	"course":   {Kind: KindUUID, Nullable: true},
}

func TestApplyUpdate_DropsUnknownKeys(t *testing.T) {
	out, err := ApplyUpdate(testSchema, map[string]any{
		"title":    "Go",
		"is_admin": true,
		"id":       "x",
	})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if len(out) != 1 || out["title"] != "Go" {
		t.Fatalf("got %v", out)
	}
}

func TestApplyUpdate_ConvertsValues(t *testing.T) {
	id := uuid.New()
	out, err := ApplyUpdate(testSchema, map[string]any{
		"coins":    float64(30),
		"lat":      float64(41.7),
		"active":   false,
		"deadline": "2026-06-01T18:30",
		"arrival":  "2026-06-10",
		"course":   id.String(),
	})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	if out["coins"] != 30 || out["lat"] != 41.7 || out["active"] != false {
		t.Fatalf("scalar conversion: %v", out)
	}
	if got := out["deadline"].(time.Time); !got.Equal(time.Date(2026, 6, 1, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("deadline = %v", got)
	}
	if got := time.Time(out["arrival"].(datatypes.Date)); got.Day() != 10 {
		t.Fatalf("arrival = %v", got)
	}
	if out["course"] != id {
		t.Fatalf("course = %v", out["course"])
	}
}

func TestApplyUpdate_NullableClears(t *testing.T) {
	out, err := ApplyUpdate(testSchema, map[string]any{"deadline": nil, "arrival": "", "course": ""})
	if err != nil {
		t.Fatalf("ApplyUpdate: %v", err)
	}
	for _, k := range []string{"deadline", "arrival", "course"} {
		if v, ok := out[k]; !ok || v != nil {
			t.Errorf("%s = %v, want explicit nil", k, v)
		}
	}
}

func TestApplyUpdate_RejectsBadTypes(t *testing.T) {
	cases := []map[string]any{
		{"coins": "ten"},
		{"coins": 1.5},
		{"title": nil},
		{"active": "yes"},
		{"deadline": "tomorrow"},
		{"course": "nope"},
	}
	for _, raw := range cases {
		_, err := ApplyUpdate(testSchema, raw)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("ApplyUpdate(%v) = %v; want ValidationError", raw, err)
		}
	}

	_, err := ApplyUpdate(testSchema, map[string]any{"coins": "ten"})
	if err.Error() != "Invalid value for coins: expected integer" {
		t.Fatalf("message = %q", err.Error())
	}
}

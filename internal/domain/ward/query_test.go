package ward

import (
	"strings"
	"testing"

	"github.com/doug-martin/goqu/v9"
)

func TestSelectPatients_Postgres(t *testing.T) {
	iso := true
	query, args, err := selectPatients(pgDialect, PatientFilter{Name: "ann", Condition: "High", IsIsolated: &iso}, goqu.C("seq").Asc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`FROM "patients"`, `"name" ILIKE $1 ESCAPE '\'`, `"condition" = $2`, `"is_isolated" IS TRUE`, `ORDER BY "seq" ASC`} {
		if !strings.Contains(query, want) {
			t.Errorf("expected %q in %s", want, query)
		}
	}
	if len(args) != 2 || args[0] != "%ann%" || args[1] != "High" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestSelectPatients_SQLite(t *testing.T) {
	query, args, err := selectPatients(sqliteDialect, PatientFilter{Name: "ann", Unassigned: true}, sqliteOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(query, "ILIKE") || !strings.Contains(query, "unicode_lower(") || !strings.Contains(query, "LIKE ? ESCAPE") {
		t.Errorf("expected a folded LIKE placeholder, got %s", query)
	}
	// Prepared mode binds NULL for IS NULL.
	if !strings.Contains(query, "IS ?") || !strings.Contains(query, "rowid") {
		t.Errorf("expected unassigned and rowid order, got %s", query)
	}
	if len(args) != 2 || args[0] != "%ann%" || args[1] != nil {
		t.Errorf("unexpected args %v", args)
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"ann":   "%ann%",
		"50%":   `%50\%%`,
		"a_b":   `%a\_b%`,
		`c\d`:   `%c\\d%`,
		"Élise": "%Élise%",
	}
	for term, want := range tests {
		if got := likePattern(term); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", term, got, want)
		}
	}
}

func TestSelectPatients_SQLiteLowersTerm(t *testing.T) {
	_, args, err := selectPatients(sqliteDialect, PatientFilter{Name: "ÉLISE_"}, sqliteOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(args) != 1 || args[0] != `%élise\_%` {
		t.Errorf("unexpected args %v", args)
	}
}

func TestCountPatients_NoFilter(t *testing.T) {
	query, args, err := countPatients(pgDialect, PatientFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(query, "WHERE") || len(args) != 0 {
		t.Errorf("expected unfiltered count, got %s %v", query, args)
	}
}

func TestSelectRooms_AvailableOnly(t *testing.T) {
	query, _, err := selectRooms(pgDialect, RoomFilter{AvailableOnly: true}, goqu.C("seq").Asc())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(query, `"is_available" IS TRUE`) {
		t.Errorf("expected availability filter, got %s", query)
	}
}

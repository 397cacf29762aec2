package ward

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/db"
)

func newSQLiteRepos(t *testing.T) (PatientRepository, RoomRepository) {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return NewPatientRepoSQLite(sqlDB), NewRoomRepoSQLite(sqlDB)
}

func TestPatientRepoSQLite_RoundTrip(t *testing.T) {
	patients, _ := newSQLiteRepos(t)
	ctx := context.Background()

	p := &Patient{Name: "Ann", Age: 41, Condition: "High", Symptoms: []string{"Fever", "Cough"}, InfectionRisk: true, IsIsolated: true}
	if err := patients.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}

	got, err := patients.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Ann" || got.Age != 41 || len(got.Symptoms) != 2 || !got.InfectionRisk || !got.IsIsolated || got.Room != nil {
		t.Errorf("unexpected patient %+v", got)
	}

	if err := patients.SetRoom(ctx, p.ID, strPtr("101")); err != nil {
		t.Fatalf("SetRoom: %v", err)
	}
	if err := patients.SetIsolation(ctx, p.ID, false); err != nil {
		t.Fatalf("SetIsolation: %v", err)
	}
	got, _ = patients.GetByID(ctx, p.ID)
	if got.RoomNumber() != "101" || got.IsIsolated {
		t.Errorf("expected room 101 and not isolated, got %+v", got)
	}

	if err := patients.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := patients.GetByID(ctx, p.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPatientRepoSQLite_Filters(t *testing.T) {
	patients, _ := newSQLiteRepos(t)
	ctx := context.Background()
	for _, p := range []*Patient{
		{Name: "Annie", Condition: "High", IsIsolated: true, Room: strPtr("101")},
		{Name: "Bob", Condition: "Low"},
		{Name: "JoAnn", Condition: "Medium", Room: strPtr("101")},
	} {
		if err := patients.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := patients.List(ctx, PatientFilter{Name: "ann"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Annie" || list[1].Name != "JoAnn" {
		t.Errorf("expected Annie and JoAnn in insertion order, got %+v", list)
	}

	iso := false
	if n, _ := patients.Count(ctx, PatientFilter{IsIsolated: &iso}); n != 2 {
		t.Errorf("expected 2 non-isolated, got %d", n)
	}
	if n, _ := patients.Count(ctx, PatientFilter{Room: "101"}); n != 2 {
		t.Errorf("expected 2 in room 101, got %d", n)
	}
	if n, _ := patients.Count(ctx, PatientFilter{Unassigned: true}); n != 1 {
		t.Errorf("expected 1 unassigned, got %d", n)
	}

	conditions, err := patients.DistinctConditions(ctx)
	if err != nil || len(conditions) != 3 {
		t.Errorf("DistinctConditions = %v, %v", conditions, err)
	}
}

func TestPatientRepoSQLite_NameFilterIsLiteralAndUnicode(t *testing.T) {
	patients, _ := newSQLiteRepos(t)
	ctx := context.Background()
	for _, name := range []string{"Élise", "Bob", "50% Smith", "A_B", "AxB", `C\D`} {
		if err := patients.Create(ctx, &Patient{Name: name, Condition: "Low"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	tests := []struct {
		term string
		want []string
	}{
		{"élise", []string{"Élise"}},
		{"ÉLI", []string{"Élise"}},
		{"%", []string{"50% Smith"}},
		{"_", []string{"A_B"}},
		{"a_b", []string{"A_B"}},
		{`\`, []string{`C\D`}},
		{"b", []string{"Bob", "A_B", "AxB"}},
	}
	for _, tt := range tests {
		list, err := patients.List(ctx, PatientFilter{Name: tt.term})
		if err != nil {
			t.Fatalf("List(%q): %v", tt.term, err)
		}
		var got []string
		for _, p := range list {
			got = append(got, p.Name)
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("name %q: got %v, want %v", tt.term, got, tt.want)
		}
		if n, _ := patients.Count(ctx, PatientFilter{Name: tt.term}); n != len(tt.want) {
			t.Errorf("count %q: got %d, want %d", tt.term, n, len(tt.want))
		}
	}
}

func TestRoomRepoSQLite(t *testing.T) {
	_, rooms := newSQLiteRepos(t)
	ctx := context.Background()

	first := &Room{RoomNumber: "101", Type: "General", Capacity: 1, IsAvailable: true}
	second := &Room{RoomNumber: "101", Type: "ICU", Capacity: 3, IsAvailable: true}
	for _, r := range []*Room{first, second} {
		if err := rooms.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := rooms.GetByNumber(ctx, "101")
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if got.ID != first.ID {
		t.Error("expected the first room with a duplicated number")
	}
	if _, err := rooms.GetByNumber(ctx, "999"); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}

	if err := rooms.SetAvailability(ctx, first.ID, false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}
	available, err := rooms.List(ctx, RoomFilter{AvailableOnly: true})
	if err != nil || len(available) != 1 || available[0].ID != second.ID {
		t.Errorf("List(available) = %+v, %v", available, err)
	}
	if n, _ := rooms.Count(ctx, RoomFilter{}); n != 2 {
		t.Errorf("expected 2 rooms, got %d", n)
	}

	second.Capacity = 4
	if err := rooms.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := rooms.GetByID(ctx, second.ID); got.Capacity != 4 {
		t.Errorf("expected capacity 4, got %d", got.Capacity)
	}

	if err := rooms.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := rooms.GetByID(ctx, first.ID); !apperr.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestService_SQLiteAssignment(t *testing.T) {
	patients, rooms := newSQLiteRepos(t)
	svc := NewService(patients, rooms, nil, zerolog.Nop())
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, testActor, RoomInput{RoomNumber: "101", Type: "General", Capacity: "1"})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	p, err := svc.CreatePatient(ctx, testActor, PatientInput{Name: "A", Age: "30", Condition: "Low"})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}

	if _, err := svc.AssignRoom(ctx, testActor, p.ID, "101"); err != nil {
		t.Fatalf("AssignRoom: %v", err)
	}
	if got, _ := svc.GetRoom(ctx, testActor, room.ID); got.IsAvailable {
		t.Error("expected room to be full")
	}

	if err := svc.DischargePatient(ctx, testActor, p.ID); err != nil {
		t.Fatalf("DischargePatient: %v", err)
	}
	if got, _ := svc.GetRoom(ctx, testActor, room.ID); !got.IsAvailable {
		t.Error("expected room to be free after discharge")
	}
}

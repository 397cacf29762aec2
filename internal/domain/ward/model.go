package ward

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a ward patient. Room is a weak reference to Room.RoomNumber;
// nil means unassigned and nothing checks that the room exists.
type Patient struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Age           int       `json:"age"`
	Condition     string    `json:"condition"`
	Symptoms      []string  `json:"symptoms"`
	InfectionRisk bool      `json:"infectionRisk"`
	IsIsolated    bool      `json:"isIsolated"`
	Room          *string   `json:"room"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// RoomNumber returns the assigned room number, or "".
func (p *Patient) RoomNumber() string {
	if p.Room == nil {
		return ""
	}
	return *p.Room
}

type Room struct {
	ID          uuid.UUID `json:"id"`
	RoomNumber  string    `json:"roomNumber"`
	Type        string    `json:"type"`
	Capacity    int       `json:"capacity"`
	IsAvailable bool      `json:"isAvailable"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PatientFilter is a conjunction; zero fields do not constrain.
type PatientFilter struct {
	Name       string // case-insensitive substring
	Condition  string
	IsIsolated *bool
	Room       string
	Unassigned bool
}

// ParsePatientFilter builds a filter from raw query values. The isolation
// value only constrains when it is exactly "true" or "false".
func ParsePatientFilter(name, condition, isIsolated, room string) PatientFilter {
	f := PatientFilter{Name: name, Condition: condition, Room: room}
	switch isIsolated {
	case "true", "false":
		v := isIsolated == "true"
		f.IsIsolated = &v
	}
	return f
}

// RoomFilter narrows room listings and counts.
type RoomFilter struct {
	AvailableOnly bool
}

// PatientInput is the raw create form.
type PatientInput struct {
	Name          string
	Age           string
	Condition     string
	Symptoms      string
	InfectionRisk string
}

// PatientUpdate carries the clinical fields submitted on edit. A nil field
// was not submitted and is left unchanged.
type PatientUpdate struct {
	Name      *string
	Age       *string
	Condition *string
	Room      *string
}

type RoomInput struct {
	RoomNumber string
	Type       string
	Capacity   string
}

// RoomUpdate follows the same nil-means-untouched rule as PatientUpdate.
type RoomUpdate struct {
	RoomNumber *string
	Type       *string
	Capacity   *string
}

// EvaluationResult summarises a bulk isolation run.
type EvaluationResult struct {
	Evaluated int `json:"evaluated"`
	Isolated  int `json:"isolated"`
}

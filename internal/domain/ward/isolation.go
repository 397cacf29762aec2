package ward

import (
	"slices"
	"strings"
)

// ShouldIsolate is the isolation rule: High condition, a "Fever" symptom
// (exact, case-sensitive) or an infection risk.
func ShouldIsolate(condition string, symptoms []string, infectionRisk bool) bool {
	return condition == "High" || slices.Contains(symptoms, "Fever") || infectionRisk
}

// ShouldIsolate applies the rule to the patient's current fields.
func (p *Patient) ShouldIsolate() bool {
	return ShouldIsolate(p.Condition, p.Symptoms, p.InfectionRisk)
}

// ParseSymptoms splits a comma separated form value and trims each entry.
// Empty input yields an empty list; empty entries between commas are kept.
func ParseSymptoms(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// ParseInfectionRisk is true only for the exact form value "true".
func ParseInfectionRisk(raw string) bool {
	return raw == "true"
}

package ward

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/auth"
)

// PatientList is a filtered listing plus every condition value on record,
// for building the filter form.
type PatientList struct {
	Patients   []*Patient
	Conditions []string
}

func (s *Service) ListPatients(ctx context.Context, actor auth.Identity, f PatientFilter) (*PatientList, error) {
	patients, err := s.patients.List(ctx, f)
	if err != nil {
		return nil, apperr.NewPersistence("list patients", err)
	}
	conditions, err := s.patients.DistinctConditions(ctx)
	if err != nil {
		return nil, apperr.NewPersistence("list conditions", err)
	}
	return &PatientList{Patients: patients, Conditions: conditions}, nil
}

// ListIsolated returns every patient currently flagged for isolation.
func (s *Service) ListIsolated(ctx context.Context, actor auth.Identity) ([]*Patient, error) {
	isolated := true
	patients, err := s.patients.List(ctx, PatientFilter{IsIsolated: &isolated})
	if err != nil {
		return nil, apperr.NewPersistence("list isolated patients", err)
	}
	return patients, nil
}

func (s *Service) GetPatient(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NewPersistence("get patient", err)
	}
	return p, nil
}

// CreatePatient stores a new patient. Isolation is evaluated once here and
// not again on later edits.
func (s *Service) CreatePatient(ctx context.Context, actor auth.Identity, in PatientInput) (*Patient, error) {
	age, err := parseCount("age", in.Age)
	if err != nil {
		return nil, err
	}
	p := &Patient{
		Name:          in.Name,
		Age:           age,
		Condition:     in.Condition,
		Symptoms:      ParseSymptoms(in.Symptoms),
		InfectionRisk: ParseInfectionRisk(in.InfectionRisk),
	}
	p.IsIsolated = p.ShouldIsolate()

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, apperr.NewPersistence("create patient", err)
	}
	s.metrics.ObserveIsolation(p.IsIsolated)
	s.logger.Info().
		Str("actor", actor.String()).
		Str("patient_id", p.ID.String()).
		Bool("isolated", p.IsIsolated).
		Msg("patient created")
	return p, nil
}

// UpdatePatient overwrites the submitted clinical fields. Neither the
// isolation flag nor room availability is recomputed, so both can go stale
// until the next evaluation or ledger run. An empty room clears the
// assignment.
func (s *Service) UpdatePatient(ctx context.Context, actor auth.Identity, id uuid.UUID, upd PatientUpdate) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NewPersistence("load patient", err)
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Age != nil {
		age, err := parseCount("age", *upd.Age)
		if err != nil {
			return nil, err
		}
		p.Age = age
	}
	if upd.Condition != nil {
		p.Condition = *upd.Condition
	}
	if upd.Room != nil {
		if room := strings.TrimSpace(*upd.Room); room != "" {
			p.Room = &room
		} else {
			p.Room = nil
		}
	}

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, apperr.NewPersistence("update patient", err)
	}
	s.logger.Info().Str("actor", actor.String()).Str("patient_id", id.String()).Msg("patient updated")
	return p, nil
}

// UnassignPatient clears the patient's room and frees a place in it. A
// missing patient or one without a room is left alone.
func (s *Service) UnassignPatient(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	p, err := s.patients.GetByID(ctx, id)
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return apperr.NewPersistence("load patient", err)
	}
	if p.Room == nil {
		return nil
	}

	previous := *p.Room
	if err := s.patients.SetRoom(ctx, id, nil); err != nil {
		return apperr.NewPersistence("clear patient room", err)
	}
	if _, err := s.ledger.Recompute(ctx, previous); err != nil {
		return err
	}
	s.logger.Info().
		Str("actor", actor.String()).
		Str("patient_id", id.String()).
		Str("room", previous).
		Msg("patient unassigned")
	return nil
}

// DischargePatient deletes the patient and recomputes the room they were
// in. A patient that is already gone is not an error.
func (s *Service) DischargePatient(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	return s.removePatient(ctx, actor, id, "patient discharged")
}

// DeletePatient behaves exactly like DischargePatient.
func (s *Service) DeletePatient(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	return s.removePatient(ctx, actor, id, "patient deleted")
}

func (s *Service) removePatient(ctx context.Context, actor auth.Identity, id uuid.UUID, msg string) error {
	p, err := s.patients.GetByID(ctx, id)
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return apperr.NewPersistence("load patient", err)
	}

	room := p.RoomNumber()
	if err := s.patients.Delete(ctx, id); err != nil {
		return apperr.NewPersistence("delete patient", err)
	}
	if room != "" {
		if _, err := s.ledger.Recompute(ctx, room); err != nil {
			return err
		}
	}
	s.logger.Info().
		Str("actor", actor.String()).
		Str("patient_id", id.String()).
		Str("room", room).
		Msg(msg)
	return nil
}

// EvaluateIsolation recomputes and stores the isolation flag of every
// patient in storage order. It stops at the first write failure; patients
// updated before it keep their new flag.
func (s *Service) EvaluateIsolation(ctx context.Context, actor auth.Identity) (EvaluationResult, error) {
	var res EvaluationResult
	patients, err := s.patients.List(ctx, PatientFilter{})
	if err != nil {
		return res, apperr.NewPersistence("list patients", err)
	}

	for _, p := range patients {
		isolate := p.ShouldIsolate()
		if err := s.patients.SetIsolation(ctx, p.ID, isolate); err != nil {
			s.logger.Error().Err(err).
				Str("actor", actor.String()).
				Str("patient_id", p.ID.String()).
				Int("evaluated", res.Evaluated).
				Msg("isolation evaluation aborted")
			return res, apperr.NewPersistence("save isolation flag", err)
		}
		s.metrics.ObserveIsolation(isolate)
		res.Evaluated++
		if isolate {
			res.Isolated++
		}
	}

	s.metrics.SetIsolatedPatients(res.Isolated)
	s.logger.Info().
		Str("actor", actor.String()).
		Int("evaluated", res.Evaluated).
		Int("isolated", res.Isolated).
		Msg("isolation evaluated")
	return res, nil
}

package ward

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/wardadmin/internal/platform/apperr"
	"github.com/ehr/wardadmin/internal/platform/telemetry"
)

// Service implements the patient and room directories. Every operation
// takes the acting identity explicitly; it is only used for logging.
type Service struct {
	patients PatientRepository
	rooms    RoomRepository
	ledger   *Ledger
	metrics  *telemetry.Provider
	logger   zerolog.Logger
}

func NewService(patients PatientRepository, rooms RoomRepository, metrics *telemetry.Provider, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "ward").Logger()
	return &Service{
		patients: patients,
		rooms:    rooms,
		ledger:   NewLedger(patients, rooms, metrics, logger),
		metrics:  metrics,
		logger:   logger,
	}
}

// Ledger exposes the availability ledger used by the service.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// parseCount parses a non-negative integer form field. Empty means 0.
func parseCount(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.NewValidation(field + " must be a non-negative whole number")
	}
	return n, nil
}

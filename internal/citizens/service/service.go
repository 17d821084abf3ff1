// Package service implements the citizen registry operations on top of the
// dataset and report stores, guarded by cross-process leases.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"census/internal/citizens/metrics"
	"census/internal/citizens/models"
	"census/internal/platform/lock"
	dErrors "census/pkg/domain-errors"
	"census/pkg/platform/audit"
	"census/pkg/platform/sentinel"
)

// DatasetStore is the durable citizen store the service reads and writes.
type DatasetStore interface {
	CreateImport(ctx context.Context, citizens []models.Citizen) (int64, error)
	GetCitizens(ctx context.Context, importID int64, fields ...models.Field) ([]models.Citizen, error)
	UpdateCitizen(ctx context.Context, importID, citizenID int64, patch models.CitizenPatch) (*models.Citizen, error)
}

// ReportStore is the write-once gift report cache.
type ReportStore interface {
	TryGet(ctx context.Context, importID int64) (models.GiftReport, error)
	Put(ctx context.Context, importID int64, report models.GiftReport) error
}

// Lease parameters shared by every guarded section. The TTL bounds orphaned
// leases after a crash; the timeout bounds how long a contended caller waits.
const (
	defaultLockTTL     = 60 * time.Second
	defaultLockTimeout = 10 * time.Second
)

type Service struct {
	datasets DatasetStore
	reports  ReportStore
	locker   lock.Locker

	logger      *slog.Logger
	metrics     *metrics.Metrics
	audit       audit.Publisher
	validate    *validator.Validate
	lockTTL     time.Duration
	lockTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithLockParams(ttl, timeout time.Duration) Option {
	return func(s *Service) {
		s.lockTTL = ttl
		s.lockTimeout = timeout
	}
}

func New(datasets DatasetStore, reports ReportStore, locker lock.Locker, opts ...Option) (*Service, error) {
	if datasets == nil {
		return nil, fmt.Errorf("dataset store is required")
	}
	if reports == nil {
		return nil, fmt.Errorf("report store is required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker is required")
	}

	svc := &Service{
		datasets:    datasets,
		reports:     reports,
		locker:      locker,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		audit:       audit.Nop{},
		validate:    validator.New(),
		lockTTL:     defaultLockTTL,
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateImport validates and stores a new citizen dataset, returning its
// assigned import_id.
func (s *Service) CreateImport(ctx context.Context, citizens []models.Citizen) (int64, error) {
	if len(citizens) == 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "citizens list must not be empty")
	}
	if err := s.validateImport(citizens); err != nil {
		return 0, err
	}

	importID, err := s.datasets.CreateImport(ctx, citizens)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store import")
	}

	s.metrics.IncImportsCreated()
	s.publishAudit(ctx, audit.Event{Action: audit.ActionImportCreated, ImportID: importID})
	s.logger.InfoContext(ctx, "import created", "import_id", importID, "citizens", len(citizens))
	return importID, nil
}

// ListCitizens returns every citizen of an import. The read runs under the
// import lease so it never observes a half-applied patch from another worker.
func (s *Service) ListCitizens(ctx context.Context, importID int64) ([]models.Citizen, error) {
	lease, err := s.acquire(ctx, importResource(importID))
	if err != nil {
		return nil, err
	}
	defer s.locker.Release(ctx, lease)

	citizens, err := s.datasets.GetCitizens(ctx, importID)
	if err != nil {
		return nil, translateStoreErr(err, "import not found")
	}
	return citizens, nil
}

// PatchCitizen updates a single citizen under the import lease, keeping the
// relatives relation symmetric.
func (s *Service) PatchCitizen(ctx context.Context, importID, citizenID int64, patch models.CitizenPatch) (*models.Citizen, error) {
	if patch.Empty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "patch must change at least one field")
	}
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}

	lease, err := s.acquire(ctx, importResource(importID))
	if err != nil {
		return nil, err
	}
	defer s.locker.Release(ctx, lease)

	if patch.Relatives != nil {
		// Every referenced relative must exist in this import.
		citizens, err := s.datasets.GetCitizens(ctx, importID)
		if err != nil {
			return nil, translateStoreErr(err, "import not found")
		}
		known := make(map[int64]bool, len(citizens))
		for _, c := range citizens {
			known[c.CitizenID] = true
		}
		for _, id := range *patch.Relatives {
			if !known[id] {
				return nil, dErrors.New(dErrors.CodeBadRequest,
					fmt.Sprintf("relative %d does not exist in import", id))
			}
		}
	}

	updated, err := s.datasets.UpdateCitizen(ctx, importID, citizenID, patch)
	if err != nil {
		return nil, translateStoreErr(err, "citizen not found")
	}

	s.publishAudit(ctx, audit.Event{
		Action:    audit.ActionCitizenPatched,
		ImportID:  importID,
		CitizenID: citizenID,
	})
	return updated, nil
}

// acquire takes a single lease with the service-wide parameters, translating
// failures into the domain error taxonomy.
func (s *Service) acquire(ctx context.Context, resource string) (*lock.Lease, error) {
	start := time.Now()
	lease, err := s.locker.Acquire(ctx, resource, s.lockTTL, s.lockTimeout)
	s.metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		return nil, translateLockErr(err)
	}
	return lease, nil
}

func importResource(importID int64) string {
	return strconv.FormatInt(importID, 10)
}

func birthdaysResource(importID int64) string {
	return "birthdays_" + strconv.FormatInt(importID, 10)
}

func translateLockErr(err error) error {
	if errors.Is(err, lock.ErrTimeout) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "resource is locked by another worker")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "coordination store unavailable")
}

func translateStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "dataset store unavailable")
}

func (s *Service) publishAudit(ctx context.Context, event audit.Event) {
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.audit.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit publish failed",
			"action", string(event.Action),
			"import_id", event.ImportID,
			"error", err.Error(),
		)
	}
}

// validateImport applies the structural rules for a new dataset: valid
// records, unique ids, and a symmetric relatives relation.
func (s *Service) validateImport(citizens []models.Citizen) error {
	seen := make(map[int64]bool, len(citizens))
	relatives := make(map[int64]map[int64]bool, len(citizens))
	now := time.Now()

	for _, c := range citizens {
		if err := s.validate.Struct(c); err != nil {
			return dErrors.Wrap(err, dErrors.CodeBadRequest,
				fmt.Sprintf("invalid citizen %d", c.CitizenID))
		}
		if c.BirthDate.After(now) {
			return dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("citizen %d has a birth date in the future", c.CitizenID))
		}
		if seen[c.CitizenID] {
			return dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("duplicate citizen_id %d", c.CitizenID))
		}
		seen[c.CitizenID] = true

		relatives[c.CitizenID] = make(map[int64]bool, len(c.Relatives))
		for _, id := range c.Relatives {
			relatives[c.CitizenID][id] = true
		}
	}

	for citizenID, rels := range relatives {
		for relativeID := range rels {
			if !seen[relativeID] {
				return dErrors.New(dErrors.CodeBadRequest,
					fmt.Sprintf("citizen %d references unknown relative %d", citizenID, relativeID))
			}
			if !relatives[relativeID][citizenID] {
				return dErrors.New(dErrors.CodeBadRequest,
					fmt.Sprintf("relation between %d and %d is not mutual", citizenID, relativeID))
			}
		}
	}
	return nil
}

func (s *Service) validatePatch(patch models.CitizenPatch) error {
	if patch.Gender != nil && *patch.Gender != "male" && *patch.Gender != "female" {
		return dErrors.New(dErrors.CodeBadRequest, "gender must be male or female")
	}
	if patch.BirthDate != nil && patch.BirthDate.After(time.Now()) {
		return dErrors.New(dErrors.CodeBadRequest, "birth date must not be in the future")
	}
	for _, field := range []*string{patch.Town, patch.Street, patch.Building, patch.Name} {
		if field != nil && *field == "" {
			return dErrors.New(dErrors.CodeBadRequest, "string fields must not be empty")
		}
	}
	if patch.Apartment != nil && *patch.Apartment < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "apartment must not be negative")
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"census/internal/citizens/birthdays"
	"census/internal/citizens/models"
	"census/internal/platform/lock"
	dErrors "census/pkg/domain-errors"
	"census/pkg/platform/audit"
	"census/pkg/platform/sentinel"
)

var tracer = otel.Tracer("census/citizens")

// GetBirthdays returns the per-month gift report for an import. The first
// call computes and caches it; every later call is served from the cache
// unchanged, even if citizens were patched in between.
//
// Both the import lease and the birthdays lease are held while computing, in
// that fixed order, so two workers never race the cache fill and patches
// never interleave with the read.
func (s *Service) GetBirthdays(ctx context.Context, importID int64) (models.GiftReport, error) {
	ctx, span := tracer.Start(ctx, "GetBirthdays")
	span.SetAttributes(attribute.Int64("import_id", importID))
	defer span.End()

	start := time.Now()
	guard, err := s.acquireAll(ctx, importResource(importID), birthdaysResource(importID))
	s.metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		return nil, err
	}
	defer guard.Release(ctx)

	cached, err := s.reports.TryGet(ctx, importID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "report cache unavailable")
	}
	if cached != nil {
		s.metrics.IncReportCacheHits()
		s.logger.DebugContext(ctx, "gift report served from cache", "import_id", importID)
		return cached, nil
	}

	citizens, err := s.datasets.GetCitizens(ctx, importID, models.FieldBirthDate, models.FieldRelatives)
	if err != nil {
		return nil, translateStoreErr(err, "import not found")
	}

	buildStart := time.Now()
	report := birthdays.Aggregate(citizens)
	s.metrics.ObserveReportBuild(time.Since(buildStart))

	if err := s.reports.Put(ctx, importID, report); err != nil {
		// The leases make a concurrent fill impossible, so a conflict here
		// means the guard was violated somewhere.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "report already cached under lease")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to cache report")
	}

	s.metrics.IncReportsComputed()
	s.publishAudit(ctx, audit.Event{Action: audit.ActionReportComputed, ImportID: importID})
	s.logger.InfoContext(ctx, "gift report computed",
		"import_id", importID,
		"citizens", len(citizens),
		"build_time", time.Since(buildStart).String(),
	)
	return report, nil
}

func (s *Service) acquireAll(ctx context.Context, resources ...string) (*lock.Guard, error) {
	guard, err := lock.AcquireAll(ctx, s.locker, resources, s.lockTTL, s.lockTimeout)
	if err != nil {
		return nil, translateLockErr(err)
	}
	return guard, nil
}

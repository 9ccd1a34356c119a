package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alleny0o/sr-laserworks-ecommerce/internal/domain"
	"github.com/alleny0o/sr-laserworks-ecommerce/internal/repository"
	apperrors "github.com/alleny0o/sr-laserworks-ecommerce/pkg/errors"
	"github.com/alleny0o/sr-laserworks-ecommerce/pkg/logger"
)

// ErrSuperseded marks a check whose result was discarded because a newer
// edit of the same field started.
var ErrSuperseded = fmt.Errorf("%w: check superseded by a newer edit", apperrors.ErrConflict)

func superseded(path string) *apperrors.AppError {
	return &apperrors.AppError{
		Code:    "SUPERSEDED",
		Message: fmt.Sprintf("a newer check for %s has started", path),
		Status:  http.StatusConflict,
		Err:     ErrSuperseded,
	}
}

type fieldValidator interface {
	ValidateField(ctx context.Context, documentID, path, sku string) (domain.SKUResult, error)
}

type fieldTask struct {
	seq    int64
	cancel context.CancelFunc
}

// FieldChecks runs SKU checks per edited field. A newer check for the same
// field cancels the older one on this instance; across instances the
// sequence held by the store decides which result is recorded.
type FieldChecks struct {
	validator fieldValidator
	store     repository.FieldStateStore
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight map[repository.FieldRef]*fieldTask
}

// NewFieldChecks creates a new field check coordinator.
func NewFieldChecks(validator fieldValidator, store repository.FieldStateStore, logger *slog.Logger) *FieldChecks {
	return &FieldChecks{
		validator: validator,
		store:     store,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[repository.FieldRef]*fieldTask),
	}
}

// Check validates sku for the field at path and records the result if no
// newer check for the field has started meanwhile.
func (f *FieldChecks) Check(ctx context.Context, documentID, path, sku string) (*repository.FieldCheck, error) {
	if _, err := ParseSKUField(path); err != nil {
		return nil, err
	}

	ref := repository.FieldRef{DocumentID: documentID, FieldPath: path}

	seq, err := f.store.Next(ctx, ref)
	if err != nil {
		return nil, apperrors.Unavailable("field state store unavailable", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.start(ref, seq, cancel)
	defer f.finish(ref, seq)

	result, err := f.validator.ValidateField(taskCtx, documentID, path, sku)
	if taskCtx.Err() != nil && ctx.Err() == nil {
		return nil, f.discard(ctx, ref, seq)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}

	check := repository.FieldCheck{
		FieldPath: path,
		Seq:       seq,
		SKU:       sku,
		Result:    result,
		CheckedAt: f.now().UTC(),
	}

	committed, err := f.store.Commit(ctx, ref, check)
	if err != nil {
		return nil, apperrors.Unavailable("field state store unavailable", err)
	}
	if !committed {
		return nil, f.discard(ctx, ref, seq)
	}

	return &check, nil
}

// List returns the latest recorded check of every field of the document.
func (f *FieldChecks) List(ctx context.Context, documentID string) ([]repository.FieldCheck, error) {
	checks, err := f.store.List(ctx, documentID)
	if err != nil {
		return nil, apperrors.Unavailable("field state store unavailable", err)
	}
	return checks, nil
}

// InFlight reports how many checks are running on this instance.
func (f *FieldChecks) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inflight)
}

func (f *FieldChecks) start(ref repository.FieldRef, seq int64, cancel context.CancelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if prev, ok := f.inflight[ref]; ok && prev.seq < seq {
		prev.cancel()
	}
	if cur, ok := f.inflight[ref]; !ok || cur.seq < seq {
		f.inflight[ref] = &fieldTask{seq: seq, cancel: cancel}
		return
	}
	// A newer check already started here.
	cancel()
}

func (f *FieldChecks) finish(ref repository.FieldRef, seq int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if task, ok := f.inflight[ref]; ok && task.seq == seq {
		task.cancel()
		delete(f.inflight, ref)
	}
}

func (f *FieldChecks) discard(ctx context.Context, ref repository.FieldRef, seq int64) error {
	fieldChecksSuperseded.Inc()
	logger.WithContext(ctx, f.logger).DebugContext(ctx, "field check superseded",
		slog.String("document_id", ref.DocumentID),
		slog.String("field", ref.FieldPath),
		slog.Int64("seq", seq),
	)
	return superseded(ref.FieldPath)
}

// IsSuperseded reports whether err came from a discarded check.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

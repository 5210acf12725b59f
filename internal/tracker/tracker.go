// Package tracker manages compost bins and their observation logs, and asks
// the content service to read trends from them.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// analyzeWindow is how many recent logs Analyze sends.
const analyzeWindow = 5

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// BinInput describes a new bin.
type BinInput struct {
	Name string `validate:"required,max=60"`
	Type string `validate:"required,oneof=hot cold vermicompost"`
}

// LogInput describes one observation. Temperature is in celsius and
// optional.
type LogInput struct {
	Temperature *float64 `validate:"omitempty,gte=-40,lte=100"`
	Moisture    string   `validate:"required,oneof=dry ideal wet"`
	Smell       string   `validate:"required,oneof=earthy sour ammonia none"`
	Notes       string   `validate:"max=500"`
}

// Option configures the tracker.
type Option func(*Tracker)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Tracker manages bins over a BinStore. It depends only on interfaces.
type Tracker struct {
	store   domain.BinStore
	content domain.ContentService
	log     *logger.Logger
	now     func() time.Time
}

// New creates a tracker. content may be nil, in which case Analyze reports
// ErrAdvisoryUnavailable.
func New(store domain.BinStore, content domain.ContentService, log *logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		content: content,
		log:     log,
		now:     time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// CreateBin starts tracking a new bin.
func (t *Tracker) CreateBin(ctx context.Context, in BinInput) (*domain.CompostBin, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	bin := &domain.CompostBin{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Type:      domain.BinType(in.Type),
		StartDate: t.now(),
	}
	if err := t.store.Save(ctx, bin); err != nil {
		return nil, fmt.Errorf("saving bin: %w", err)
	}

	t.log.Info("created %s bin %q (%s)", bin.Type, bin.Name, bin.ID)
	return bin, nil
}

// AddLog appends an observation to a bin.
func (t *Tracker) AddLog(ctx context.Context, binID string, in LogInput) (*domain.BinLog, error) {
	in.Moisture = strings.ToLower(strings.TrimSpace(in.Moisture))
	in.Smell = strings.ToLower(strings.TrimSpace(in.Smell))
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	entry := domain.BinLog{
		ID:          uuid.NewString(),
		Date:        t.now(),
		Temperature: in.Temperature,
		Moisture:    domain.Moisture(in.Moisture),
		Smell:       domain.Smell(in.Smell),
		Notes:       in.Notes,
	}

	var count int
	err := t.store.Update(ctx, binID, func(bin *domain.CompostBin) error {
		bin.Logs = append(bin.Logs, entry)
		count = len(bin.Logs)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("logging to bin %s: %w", binID, err)
	}

	t.log.Debug("logged %s/%s for bin %s (%d logs)", entry.Moisture, entry.Smell, binID, count)
	return &entry, nil
}

// Bins returns every tracked bin.
func (t *Tracker) Bins(ctx context.Context) ([]*domain.CompostBin, error) {
	return t.store.List(ctx)
}

// Bin returns one bin by ID.
func (t *Tracker) Bin(ctx context.Context, id string) (*domain.CompostBin, error) {
	return t.store.Load(ctx, id)
}

// DeleteBin stops tracking a bin.
func (t *Tracker) DeleteBin(ctx context.Context, id string) error {
	if err := t.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting bin: %w", err)
	}
	t.log.Info("deleted bin %s", id)
	return nil
}

// Analyze asks the content service to read the bin's recent logs.
func (t *Tracker) Analyze(ctx context.Context, id string) (string, error) {
	bin, err := t.store.Load(ctx, id)
	if err != nil {
		return "", fmt.Errorf("loading bin: %w", err)
	}
	if len(bin.Logs) == 0 {
		return "", fmt.Errorf("bin %q has no logs: %w", bin.Name, domain.ErrInvalidInput)
	}
	if t.content == nil {
		return "", fmt.Errorf("no content service configured: %w", domain.ErrAdvisoryUnavailable)
	}

	return t.content.BinHealth(ctx, bin.Type, bin.RecentLogs(analyzeWindow))
}

// invalid turns validator errors into a readable ErrInvalidInput.
func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s is too long (max %s)", field, fe.Param()))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be between -40 and 100", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// Package retention reaps delivered photo folders once their retention
// window has passed.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrJamesThe3rd/photobox/internal/metrics"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

// Cutoff is the instant photos delivered at sent stop being kept: midnight,
// in loc, of the calendar day retentionDays after delivery.
func Cutoff(sent time.Time, retentionDays int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}

	local := sent.In(loc)

	return time.Date(local.Year(), local.Month(), local.Day()+retentionDays, 0, 0, 0, 0, loc)
}

// deliveredBefore is the exclusive upper bound on delivery_sent_at for
// deliveries whose Cutoff is at or before asOf.
func deliveredBefore(asOf time.Time, retentionDays int, loc *time.Location) time.Time {
	local := asOf.In(loc)

	return time.Date(local.Year(), local.Month(), local.Day()-retentionDays+1, 0, 0, 0, 0, loc)
}

//go:generate mockgen -source=retention.go -destination=retention_mock.go -package=retention
type Transactions interface {
	ExpiredDeliveries(ctx context.Context, deliveredBefore time.Time) ([]*transaction.Transaction, error)
	MarkFolderDeleted(ctx context.Context, externalID string) error
}

type Storage interface {
	DeleteFolder(ctx context.Context, externalID string) error
}

type Config struct {
	RetentionDays int
	Location      *time.Location
	// Interval drives Run. Zero leaves scheduling to an external cron.
	Interval time.Duration
}

type Option func(*Scheduler)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

type Scheduler struct {
	transactions Transactions
	storage      Storage
	cfg          Config
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewScheduler(transactions Transactions, storage Storage, cfg Config, opts ...Option) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	s := &Scheduler{
		transactions: transactions,
		storage:      storage,
		cfg:          cfg,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Scheduler) RetentionDays() int {
	return s.cfg.RetentionDays
}

// Cutoff applies the configured retention window and timezone.
func (s *Scheduler) Cutoff(sent time.Time) time.Time {
	return Cutoff(sent, s.cfg.RetentionDays, s.cfg.Location)
}

func (s *Scheduler) FindExpiredDeliveries(ctx context.Context, retentionDays int, asOf time.Time) ([]*transaction.Transaction, error) {
	before := deliveredBefore(asOf, retentionDays, s.cfg.Location)

	txs, err := s.transactions.ExpiredDeliveries(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("finding expired deliveries: %w", err)
	}

	return txs, nil
}

type SweepResult struct {
	Deleted       int
	Folders       []string
	Failed        int
	FailedFolders []string
}

// Sweep deletes every expired delivery folder. A folder that cannot be
// deleted is reported and left for the next run.
func (s *Scheduler) Sweep(ctx context.Context, retentionDays int, asOf time.Time) (*SweepResult, error) {
	txs, err := s.FindExpiredDeliveries(ctx, retentionDays, asOf)
	if err != nil {
		return nil, err
	}

	res := &SweepResult{Folders: []string{}, FailedFolders: []string{}}

	for _, tx := range txs {
		if err := s.storage.DeleteFolder(ctx, tx.ExternalID); err != nil {
			slog.Error("failed to delete photo folder", "external_id", tx.ExternalID, "error", err)
			res.Failed++
			res.FailedFolders = append(res.FailedFolders, tx.ExternalID)

			continue
		}

		if err := s.transactions.MarkFolderDeleted(ctx, tx.ExternalID); err != nil {
			// The folder is gone; the next sweep deletes nothing and retries the mark.
			slog.Warn("failed to mark folder deleted", "external_id", tx.ExternalID, "error", err)
		}

		res.Deleted++
		res.Folders = append(res.Folders, tx.ExternalID)
	}

	s.metrics.RetentionSweep(res.Deleted, res.Failed)

	slog.Info("retention sweep finished",
		"retention_days", retentionDays,
		"deleted", res.Deleted,
		"failed", res.Failed,
	)

	return res, nil
}

// Run sweeps with the configured retention every Interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, s.cfg.RetentionDays, s.now()); err != nil {
				slog.Error("retention sweep failed", "error", err)
			}
		}
	}
}

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/focusd/internal/config"
	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/logfields"
	"git.home.luguber.info/inful/focusd/internal/notify"
	"git.home.luguber.info/inful/focusd/internal/session"
	"git.home.luguber.info/inful/focusd/internal/store"
)

// DigestScheduler sends a daily summary notification of the past day's
// finished sessions at a configured local time.
type DigestScheduler struct {
	scheduler gocron.Scheduler
	store     store.Store
	notifier  notify.Notifier
	urgency   notify.Urgency
	at        string
}

func NewDigestScheduler(cfg config.DigestConfig, st store.Store, notifier notify.Notifier, urgency notify.Urgency) (*DigestScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create digest scheduler").Build()
	}

	d := &DigestScheduler{
		scheduler: s,
		store:     st,
		notifier:  notifier,
		urgency:   urgency,
		at:        cfg.At,
	}

	hour, minute, err := config.ParseClock(cfg.At)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}

	_, err = s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
		gocron.NewTask(d.sendDigest),
		gocron.WithName("daily-digest"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to schedule daily digest").
			WithContext("at", cfg.At).Build()
	}
	return d, nil
}

func (d *DigestScheduler) Start(ctx context.Context) {
	slog.Info("daily digest scheduled", slog.String("at", d.at))
	d.scheduler.Start()
}

func (d *DigestScheduler) Stop(ctx context.Context) error {
	return d.scheduler.Shutdown()
}

func (d *DigestScheduler) sendDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := d.store.CompletedSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		slog.Error("failed to query sessions for digest", logfields.Error(err))
		return
	}

	n := notify.Notification{
		Title:   "Focus digest",
		Body:    digestBody(records),
		Urgency: d.urgency,
	}
	if err := d.notifier.Notify(ctx, n); err != nil {
		slog.Warn("failed to send digest notification", logfields.Error(err))
		return
	}
	slog.Info("daily digest sent", slog.Int("sessions", len(records)))
}

func digestBody(records []store.Record) string {
	if len(records) == 0 {
		return "No focus sessions in the last 24 hours."
	}

	var (
		totalFocused time.Duration
		completed    int
		perMode      = make(map[session.FocusMode]time.Duration)
	)
	for _, r := range records {
		focused := time.Duration(r.ElapsedSeconds) * time.Second
		totalFocused += focused
		perMode[r.Mode] += focused
		if r.State == session.StateCompleted {
			completed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d sessions, %d completed, %s focused.",
		len(records), completed, formatFocused(totalFocused))
	for mode, focused := range perMode {
		fmt.Fprintf(&b, "\n%s: %s", mode, formatFocused(focused))
	}
	return b.String()
}

func formatFocused(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

package injector

import (
	"context"
	"time"

	"github.com/neurondb/NeuronFlow/internal/config"
	"github.com/neurondb/NeuronFlow/internal/logging"
)

/* BootstrapMetrics tracks provider registration steps */
type BootstrapMetrics struct {
	StartTime       time.Time
	Duration        time.Duration
	StepDurations   map[string]time.Duration
	TotalSteps      int
	SuccessfulSteps int
	FailedSteps     int
}

/* NewBootstrapMetrics creates a new metrics tracker */
func NewBootstrapMetrics() *BootstrapMetrics {
	return &BootstrapMetrics{
		StartTime:     time.Now(),
		StepDurations: make(map[string]time.Duration),
	}
}

/* TrackStep records one step */
func (bm *BootstrapMetrics) TrackStep(name string, duration time.Duration, success bool) {
	bm.TotalSteps++
	if success {
		bm.SuccessfulSteps++
	} else {
		bm.FailedSteps++
	}
	bm.StepDurations[name] = duration
}

/* Finish computes the total duration */
func (bm *BootstrapMetrics) Finish() {
	bm.Duration = time.Since(bm.StartTime)
}

/* LogMetrics logs the bootstrap metrics */
func (bm *BootstrapMetrics) LogMetrics(logger *logging.Logger) {
	steps := make(map[string]string, len(bm.StepDurations))
	for name, d := range bm.StepDurations {
		steps[name] = d.String()
	}
	logger.Info("Provider bootstrap metrics", map[string]interface{}{
		"total_duration":   bm.Duration.String(),
		"steps":            steps,
		"total_steps":      bm.TotalSteps,
		"successful_steps": bm.SuccessfulSteps,
		"failed_steps":     bm.FailedSteps,
	})
}

/*
 * Bootstrap registers every configured provider and seals the container.
 * A provider that is configured but cannot be created fails the
 * bootstrap; an unknown provider name leaves its capability unbound.
 */
func Bootstrap(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*Container, error) {
	metrics := NewBootstrapMetrics()
	c := New()

	steps := []struct {
		name string
		run  func() error
	}{
		{"file_storage", func() error { return RegisterFileStorage(ctx, c, cfg, logger) }},
		{"email", func() error { return RegisterEmail(c, cfg, logger) }},
		{"sms", func() error { return RegisterSMS(c, cfg, logger) }},
		{"cache", func() error { return RegisterCache(ctx, c, cfg, logger) }},
	}

	for _, step := range steps {
		start := time.Now()
		if err := step.run(); err != nil {
			metrics.TrackStep(step.name, time.Since(start), false)
			metrics.Finish()
			metrics.LogMetrics(logger)
			_ = c.Close()
			return nil, err
		}
		metrics.TrackStep(step.name, time.Since(start), true)
	}

	c.Seal()
	metrics.Finish()
	metrics.LogMetrics(logger)
	logger.Info("Provider container sealed", map[string]interface{}{
		"capabilities": c.Names(),
	})
	return c, nil
}

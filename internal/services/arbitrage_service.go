package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfndi/cryptogap-go/internal/config"
	"github.com/irfndi/cryptogap-go/internal/models"
	"github.com/irfndi/cryptogap-go/internal/telemetry"
)

// OpportunitySource runs one full arbitrage cycle.
type OpportunitySource interface {
	Exchanges() []string
	ListOpportunities(ctx context.Context) []models.ArbitrageOpportunity
}

// ArbitrageServiceConfig holds configuration for the arbitrage service
type ArbitrageServiceConfig struct {
	Interval          time.Duration
	AlertThresholdPct decimal.Decimal
}

// ArbitrageServiceConfigFrom reads the poller settings from cfg.
func ArbitrageServiceConfigFrom(cfg config.ArbitrageConfig) ArbitrageServiceConfig {
	return ArbitrageServiceConfig{
		Interval:          cfg.RefreshInterval,
		AlertThresholdPct: decimal.NewFromFloat(cfg.AlertThresholdPct),
	}
}

// ArbitrageService recomputes opportunities on a fixed interval and alerts
// when a new top opportunity clears the alert threshold.
type ArbitrageService struct {
	source   OpportunitySource
	notifier Notifier
	config   ArbitrageServiceConfig
	tracer   *telemetry.BusinessTracer
	logger   *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu                 sync.RWMutex
	isRunning          bool
	lastCalculation    time.Time
	opportunitiesFound int
	lastTop            *models.ArbitrageOpportunity
}

// ServiceStatus is a point-in-time view of the poller.
type ServiceStatus struct {
	Running            bool      `json:"running"`
	LastCalculation    time.Time `json:"last_calculation"`
	OpportunitiesFound int       `json:"opportunities_found"`
}

// NewArbitrageService creates a new arbitrage service instance. notifier may
// be nil.
func NewArbitrageService(source OpportunitySource, notifier Notifier, cfg ArbitrageServiceConfig, logger *slog.Logger) *ArbitrageService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArbitrageService{
		source:   source,
		notifier: notifier,
		config:   cfg,
		tracer:   telemetry.NewBusinessTracer(),
		logger:   logger.With("component", "arbitrage_service"),
	}
}

// Start begins the periodic calculation. The first cycle runs immediately.
func (s *ArbitrageService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("arbitrage service is already running")
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.mu.Unlock()

	s.logger.Info("Starting arbitrage service",
		"interval", s.config.Interval.String(),
		"alert_threshold_pct", s.config.AlertThresholdPct.String())

	s.wg.Add(1)
	go s.calculationLoop(ctx)
	return nil
}

// Stop cancels the loop and waits for the running cycle to finish.
func (s *ArbitrageService) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	s.logger.Info("Stopping arbitrage service")
	cancel()
	s.wg.Wait()
	s.logger.Info("Arbitrage service stopped")
}

// IsRunning returns true if the service is currently running
func (s *ArbitrageService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status of the arbitrage service
func (s *ArbitrageService) GetStatus() ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ServiceStatus{
		Running:            s.isRunning,
		LastCalculation:    s.lastCalculation,
		OpportunitiesFound: s.opportunitiesFound,
	}
}

func (s *ArbitrageService) calculationLoop(ctx context.Context) {
	defer s.wg.Done()

	s.runCycle(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// runCycle computes the ranked list once and alerts on a new top entry.
func (s *ArbitrageService) runCycle(ctx context.Context) {
	startTime := time.Now()
	ctx, span := s.tracer.TraceArbitrageCycle(ctx, s.source.Exchanges())
	defer span.End()

	opportunities := s.source.ListOpportunities(ctx)

	var top *models.ArbitrageOpportunity
	if len(opportunities) > 0 {
		top = &opportunities[0]
	}
	s.tracer.RecordTopOpportunity(span, len(opportunities), top)

	s.mu.Lock()
	s.lastCalculation = time.Now()
	s.opportunitiesFound = len(opportunities)
	alert := top != nil && s.isNewTop(*top)
	if top != nil {
		t := *top
		s.lastTop = &t
	}
	s.mu.Unlock()

	s.logger.Info("Arbitrage calculation completed",
		"duration_ms", time.Since(startTime).Milliseconds(),
		"opportunities_found", len(opportunities))

	if alert && top.PriceDiffPct.GreaterThanOrEqual(s.config.AlertThresholdPct) {
		s.notify(ctx, *top)
	}
}

// isNewTop reports whether top names a different route than the previous
// top. Callers hold s.mu.
func (s *ArbitrageService) isNewTop(top models.ArbitrageOpportunity) bool {
	prev := s.lastTop
	if prev == nil {
		return true
	}
	return prev.Symbol != top.Symbol ||
		prev.Market != top.Market ||
		prev.BuyExchange != top.BuyExchange ||
		prev.SellExchange != top.SellExchange
}

func (s *ArbitrageService) notify(ctx context.Context, opp models.ArbitrageOpportunity) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyOpportunity(ctx, opp); err != nil {
		if errors.Is(err, ErrNotificationsDisabled) {
			return
		}
		s.logger.Warn("Failed to notify new top opportunity", "symbol", opp.Symbol, "error", err)
	}
}

package scan

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/universe"
	"github.com/wonny/pocscan/pkg/logger"
)

// Service runs scans and fans completed results out to the repository
// and live subscribers. It remembers the latest result in memory.
type Service struct {
	orch       *Orchestrator
	repo       contracts.ScanRepository
	publishers []contracts.ScanPublisher
	logger     *logger.Logger

	mu     sync.RWMutex
	latest *contracts.ScanResult
}

// NewService creates a scan service; repo may be nil (persistence disabled)
func NewService(orch *Orchestrator, repo contracts.ScanRepository, log *logger.Logger, publishers ...contracts.ScanPublisher) *Service {
	return &Service{
		orch:       orch,
		repo:       repo,
		publishers: publishers,
		logger:     log.Component("scan_service"),
	}
}

// AddPublisher registers another live subscriber (e.g. the websocket hub)
func (s *Service) AddPublisher(p contracts.ScanPublisher) {
	s.mu.Lock()
	s.publishers = append(s.publishers, p)
	s.mu.Unlock()
}

// Run executes one scan. Persistence failures are logged, not returned.
func (s *Service) Run(ctx context.Context, cond contracts.ScanConditions) (*contracts.ScanResult, error) {
	result, err := s.orch.Scan(ctx, cond)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = result
	publishers := append([]contracts.ScanPublisher(nil), s.publishers...)
	s.mu.Unlock()

	if s.repo != nil {
		id, err := s.repo.SaveScan(ctx, result)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to persist scan")
		} else {
			s.logger.WithField("run_id", id).Debug("Scan persisted")
		}
	}

	for _, p := range publishers {
		p.PublishScan(result)
	}

	return result, nil
}

// Latest returns the most recent scan of this process, falling back to the repository
func (s *Service) Latest(ctx context.Context) (*contracts.ScanResult, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest != nil {
		return latest, nil
	}
	if s.repo == nil {
		return nil, contracts.ErrNotFound
	}

	result, err := s.repo.LatestScan(ctx, s.SourceName())
	if errors.Is(err, contracts.ErrNotFound) {
		return nil, contracts.ErrNotFound
	}
	return result, err
}

// SourceName is the dataSource label of this service's scans
func (s *Service) SourceName() string {
	return s.orch.Source().Name()
}

// Registry returns the scanned universe
func (s *Service) Registry() *universe.Registry {
	return s.orch.Registry()
}

package statistic

import (
	"context"
	"seatcheck/internal/providers"
	"seatcheck/internal/statistic/interfaces"
	"seatcheck/internal/structures"
	"sync"
	"time"

	"github.com/roylee0704/gron"
	"go.uber.org/atomic"
)

// PresenceSweeper closes stale presences and prunes old history.
type PresenceSweeper interface {
	Sweep(ctx context.Context) (closed int, pruned int)
}

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	sweeper     PresenceSweeper
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	running     atomic.Bool
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		if err := s.Persist(); err != nil {
			return
		}
		s.logger.Debugf(providers.TypeApp, "Persisted snapshot to file %s", s.config.Persistence.FilePath)
	})

	s.cron.AddFunc(gron.Every(s.config.Presence.SweepInterval), func() {
		s.Sweep()
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	s.metrics.ObservePersistenceDuration(time.Since(start))
	return nil
}

// Sweep runs one reclamation pass under the storage timeout.
func (s *Scheduler) Sweep() (int, int) {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	ctx := context.Background()
	if s.config.Storage.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Storage.Timeout)
		defer cancel()
	}

	closed, pruned := s.sweeper.Sweep(ctx)
	s.metrics.ObserveSweep(closed, pruned)
	if closed > 0 || pruned > 0 {
		s.logger.Infof(providers.TypePresence, "Sweep closed %d stale presences, pruned %d history records", closed, pruned)
	}
	return closed, pruned
}

func NewScheduler(config *structures.Config, logger providers.Logger, sweeper PresenceSweeper, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		sweeper:     sweeper,
		fileManager: fileManager,
		metrics:     metrics,
	}
}

package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/unical-app/unical/app/repository"
	"github.com/unical-app/unical/internal/pkg/calendarsync"
	"github.com/unical-app/unical/internal/pkg/env"
	metrics "github.com/unical-app/unical/internal/pkg/metrics/counter"
)

const defaultSyncIntervalMinutes = 15

// Manager runs the periodic background tasks: the account sync sweep and
// the counter flush.
type Manager struct {
	syncer             *calendarsync.Syncer
	accounts           repository.AccountRepository
	syncTicker         *time.Ticker
	counterFlushTicker *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

func NewManager(syncer *calendarsync.Syncer, accounts repository.AccountRepository) *Manager {
	return &Manager{
		syncer:   syncer,
		accounts: accounts,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Scheduler] Starting background tasks")

	interval := syncInterval()
	m.syncTicker = time.NewTicker(interval)
	m.wg.Add(1)
	go m.syncWorker(interval)

	// Counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	log.Info("[Scheduler] Started successfully")
}

// Stop stops the background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping background tasks...")

	if m.syncTicker != nil {
		m.syncTicker.Stop()
	}
	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	log.Info("[Scheduler] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// RunSweepOnce exposes a manual trigger for a single sync sweep.
func (m *Manager) RunSweepOnce() {
	m.runSweep()
}

// syncWorker runs the periodic sync sweep over all syncable accounts
func (m *Manager) syncWorker(interval time.Duration) {
	defer m.wg.Done()
	log.Infof("[Scheduler] Started sync worker (interval: %s)", interval)

	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler] Sync worker stopping")
			return
		case <-m.syncTicker.C:
			m.runSweep()
		}
	}
}

// counterFlushWorker periodically flushes pending counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[Scheduler] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[Scheduler] Counter flush error: %v", err)
			}
		}
	}
}

// runSweep synchronizes every syncable account. Per-account failures are
// logged and skipped; a locked account just means another pass got there
// first.
func (m *Manager) runSweep() {
	accounts, err := m.accounts.GetSyncable()
	if err != nil {
		log.Errorf("[Scheduler] Failed to load syncable accounts: %v", err)
		return
	}
	log.Debugf("[Scheduler] Running sync sweep over %d accounts", len(accounts))

	ctx := context.Background()
	for _, acct := range accounts {
		if err := m.syncer.SyncAccount(ctx, acct.ID); err != nil {
			log.Errorf("[Scheduler] Sync failed for account %d: %v", acct.ID, err)
		}
	}
}

func syncInterval() time.Duration {
	raw := env.GetEnv("SYNC_INTERVAL_MINUTES", "")
	if raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return time.Duration(v) * time.Minute
		}
	}
	return defaultSyncIntervalMinutes * time.Minute
}

// CounterRecorder bridges sync-run accounting onto the Redis counter hash.
type CounterRecorder struct{}

func (CounterRecorder) RecordSyncRun(accountID uint) {
	if err := metrics.AddSyncRun(accountID); err != nil {
		log.Errorf("[Scheduler] Failed to record sync run for account %d: %v", accountID, err)
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mauro3422/lifesim/internal/journal"
	"github.com/mauro3422/lifesim/internal/sim"
	"github.com/mauro3422/lifesim/internal/sim/notifiers"
)

// simLoggerAdapter adapts the server's Logger to the sim.Logger interface
type simLoggerAdapter struct {
	logger *Logger
}

func (a *simLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *simLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *simLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *simLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// Server represents the HTTP server for the simulation
type Server struct {
	manager            *sim.WorldManager
	globalNotifierMgr  *sim.NotificationManager
	wsNotifier         *notifiers.WebSocketNotifier
	journal            *journal.Journal
	snapshotDir        string
	snapshotEveryTicks int
	logger             *Logger

	mu        sync.Mutex
	lastSaved map[sim.WorldID]uint64
}

// NewServer creates a new server instance
func NewServer(logger *Logger) *Server {
	// Convert server logger to sim.Logger interface
	simLogger := &simLoggerAdapter{logger: logger}

	ws := notifiers.NewWebSocketNotifier("ws-broadcast")
	globalMgr := sim.NewNotificationManager()
	if err := globalMgr.RegisterNotifier(ws); err != nil {
		logger.Warnf("cannot register websocket notifier: %v", err)
	}

	return &Server{
		manager:           sim.NewWorldManagerWithLogger(simLogger),
		globalNotifierMgr: globalMgr,
		wsNotifier:        ws,
		logger:            logger,
		lastSaved:         make(map[sim.WorldID]uint64),
	}
}

// SetJournal attaches a bond-event journal and registers it as a notifier
func (s *Server) SetJournal(j *journal.Journal) {
	s.journal = j
	if err := s.globalNotifierMgr.RegisterNotifier(j); err != nil {
		s.logger.Warnf("cannot register journal notifier: %v", err)
	}
}

// SetSnapshotDir sets the snapshot directory for all worlds
func (s *Server) SetSnapshotDir(dir string) {
	s.snapshotDir = dir
}

// SetSnapshotEveryTicks sets the snapshot frequency for all worlds
func (s *Server) SetSnapshotEveryTicks(ticks int) {
	s.snapshotEveryTicks = ticks
}

// snapshotPath is the on-disk location of a world's snapshot file
func (s *Server) snapshotPath(id sim.WorldID) string {
	return filepath.Join(s.snapshotDir, string(id)+".json")
}

// saveSnapshot writes a world's snapshot to the snapshot directory
func (s *Server) saveSnapshot(world *sim.World) (string, error) {
	if s.snapshotDir == "" {
		return "", fmt.Errorf("snapshot directory not configured")
	}
	if err := os.MkdirAll(s.snapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	snap := world.Snapshot()
	data, err := sim.EncodeSnapshotJSON(snap)
	if err != nil {
		return "", err
	}

	path := s.snapshotPath(world.ID())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	s.mu.Lock()
	s.lastSaved[world.ID()] = snap.Tick
	s.mu.Unlock()

	return path, nil
}

// maybeSnapshot saves every world whose tick count advanced far enough
// since its last save. Called periodically from the snapshot loop.
func (s *Server) maybeSnapshot() {
	if s.snapshotEveryTicks <= 0 || s.snapshotDir == "" {
		return
	}

	for _, id := range s.manager.ListWorlds() {
		world, exists := s.manager.GetWorld(id)
		if !exists {
			continue
		}

		s.mu.Lock()
		last := s.lastSaved[id]
		s.mu.Unlock()

		if world.Tick()-last < uint64(s.snapshotEveryTicks) {
			continue
		}
		if path, err := s.saveSnapshot(world); err != nil {
			s.logger.Errorf("periodic snapshot failed: world_id=%s error=%v", id, err)
		} else {
			s.logger.Debugf("periodic snapshot saved: world_id=%s path=%s", id, path)
		}
	}
}

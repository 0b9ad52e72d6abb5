package main

import (
	"net/http"
	"time"

	"github.com/mauro3422/lifesim/internal/journal"
	"github.com/mauro3422/lifesim/internal/sim"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	srv := NewServer(logger)
	srv.SetSnapshotDir(cfg.SnapshotDir)
	srv.SetSnapshotEveryTicks(cfg.SnapshotEveryTicks)

	if cfg.JournalFile != "" {
		j, err := journal.Open("journal", cfg.JournalFile)
		if err != nil {
			logger.Fatalf("cannot open journal %s: %v", cfg.JournalFile, err)
		}
		defer j.Close()
		srv.SetJournal(j)
		logger.Infof("Bond-event journal enabled: %s", cfg.JournalFile)
	}

	if cfg.CatalogFile != "" {
		catalogCfg, catalog, zones, err := loadInitialCatalogFromFile(cfg.CatalogFile)
		if err != nil {
			logger.Fatalf("cannot load catalog file %s: %v", cfg.CatalogFile, err)
		}

		world, err := srv.manager.CreateWorld(sim.WorldID(cfg.DefaultWorldID), catalog)
		if err != nil {
			logger.Fatalf("cannot create default world: %v", err)
		}
		world.WithZones(zones...).WithNotifications(srv.globalNotifierMgr)
		logger.Infof("Default world created: world_id=%s catalog_name=%s",
			cfg.DefaultWorldID, catalogCfg.Name)
	}

	// Periodic snapshot loop
	if cfg.SnapshotEveryTicks > 0 {
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for range ticker.C {
				srv.maybeSnapshot()
			}
		}()
	}

	http.HandleFunc("/healthz", srv.handleHealth)
	http.HandleFunc("/worlds", srv.handleListWorlds)
	http.HandleFunc("/world/", srv.handleWorldRoutes)
	http.HandleFunc("/notifiers", srv.handleNotifiersRoutes)
	http.HandleFunc("/notifiers/", srv.handleNotifiersRoutes)
	http.HandleFunc("/ws", srv.handleWebSocket)

	logger.Infof("lifesim-server listening on %s", cfg.Addr)
	logger.Fatalf("%v", http.ListenAndServe(cfg.Addr, nil))
}

package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mauro3422/lifesim/internal/sim"
	simnotifiers "github.com/mauro3422/lifesim/internal/sim/notifiers"
)

// extractWorldID extracts the world ID from a path like "/world/{worldID}/..."
// Returns the world ID and the remaining path, or empty string if not found
func extractWorldID(path string) (sim.WorldID, string) {
	if !strings.HasPrefix(path, "/world/") {
		return "", ""
	}

	// Remove "/world/" prefix
	rest := path[7:]

	// Find the next "/"
	idx := strings.Index(rest, "/")
	if idx == -1 {
		// No more path segments, the whole thing is the world ID
		return sim.WorldID(rest), ""
	}

	worldID := sim.WorldID(rest[:idx])
	remainingPath := rest[idx:]
	return worldID, remainingPath
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /world/{worldID}/catalog
// Body: CatalogConfig JSON
// Creates a new world with the given ID and catalog. Posting a catalog to
// an existing world replaces the world: entity state does not survive a
// catalog change.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/catalog", http.StatusBadRequest)
		return
	}

	var cfg sim.CatalogConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid catalog json: "+err.Error(), http.StatusBadRequest)
		return
	}

	catalog, zones, err := sim.BuildCatalog(cfg)
	if err != nil {
		http.Error(w, "cannot build catalog: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Replace any existing world with this ID
	if _, exists := s.manager.GetWorld(worldID); exists {
		if err := s.manager.DeleteWorld(worldID); err != nil {
			s.logger.Errorf("Failed to replace world: world_id=%s error=%v", worldID, err)
			http.Error(w, "cannot replace world: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.logger.Infof("World replaced: world_id=%s catalog_name=%s", worldID, cfg.Name)
	} else {
		s.logger.Infof("World created: world_id=%s catalog_name=%s", worldID, cfg.Name)
	}

	world, err := s.manager.CreateWorld(worldID, catalog)
	if err != nil {
		http.Error(w, "cannot create world: "+err.Error(), http.StatusInternalServerError)
		return
	}
	world.WithZones(zones...).WithNotifications(s.globalNotifierMgr)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("catalog loaded"))
}

// POST /world/{worldID}/spawn
// Body: { "element": "C", "x": 0, "y": 0, "z": 0, "charge": 0 }
type spawnRequest struct {
	Element string  `json:"element"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Charge  float64 `json:"charge,omitempty"`
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := world.SpawnCharged(sim.ElementID(req.Element), req.X, req.Y, req.Z, req.Charge)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Debugf("Atom spawned: world_id=%s element=%s id=%d", worldID, req.Element, id)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]int{"id": id}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /world/{worldID}/tick
// Manually trigger steps (useful for testing/debugging when auto-running is disabled)
// Query param: n (default: 1)
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	n := 1
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		if val, err := strconv.Atoi(nStr); err == nil && val > 0 {
			n = val
		} else {
			http.Error(w, "invalid n: must be a positive integer", http.StatusBadRequest)
			return
		}
	}

	for range n {
		world.Step()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]uint64{"tick": world.Tick()})
}

// POST /world/{worldID}/start
// Start the world auto-running with the specified interval (in milliseconds)
// Query param: interval (default: 16ms, roughly 60Hz)
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	interval := 16 * time.Millisecond
	if intervalStr := r.URL.Query().Get("interval"); intervalStr != "" {
		if ms, err := strconv.Atoi(intervalStr); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		} else {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
	}

	world.Run(interval)
	s.logger.Infof("World started: world_id=%s interval=%v", worldID, interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world started"))
}

// POST /world/{worldID}/stop
// Stop the world auto-running
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	world.Stop()
	s.logger.Infof("World stopped: world_id=%s", worldID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world stopped"))
}

// GET /world/{worldID}/state
// Returns every entity with its transform, atom and bond state
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	state := map[string]any{
		"world_id": world.ID(),
		"tick":     world.Tick(),
		"running":  world.IsRunning(),
		"entities": world.Entities(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /world/{worldID}/molecules
// Query param: min (minimum molecule size, default: 2)
func (s *Server) handleListMolecules(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	minSize := 2
	if mStr := r.URL.Query().Get("min"); mStr != "" {
		if val, err := strconv.Atoi(mStr); err == nil && val > 0 {
			minSize = val
		}
	}

	mols := world.Molecules(minSize)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(mols); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /world/{worldID}/bond
// Body: { "source": 1, "target": 2, "forced": false } for a parent bond,
// or { "source": 1, "target": 2, "cycle": true } to close a ring.
type bondRequest struct {
	Source int  `json:"source"`
	Target int  `json:"target"`
	Forced bool `json:"forced,omitempty"`
	Cycle  bool `json:"cycle,omitempty"`
}

func (s *Server) handleBond(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	var req bondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	if req.Cycle {
		err = world.TryCycleBond(req.Source, req.Target)
	} else {
		err = world.TryBond(req.Source, req.Target, req.Forced)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("bonded"))
}

// POST /world/{worldID}/break
// Body: { "id": 1, "all": false }
type breakRequest struct {
	ID  int  `json:"id"`
	All bool `json:"all,omitempty"`
}

func (s *Server) handleBreak(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	var req breakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.All {
		world.BreakAllBonds(req.ID)
	} else {
		world.BreakBond(req.ID)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("broken"))
}

// GET /world/{worldID}/audit
// Runs a topology audit and returns the repair report
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	report := world.Audit()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /worlds
// List all world IDs
func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	worldIDs := s.manager.ListWorlds()

	// Convert to strings for JSON encoding
	ids := make([]string, len(worldIDs))
	for i, id := range worldIDs {
		ids[i] = string(id)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string][]string{"worlds": ids}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// DELETE /world/{worldID}
// Delete a world
func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}", http.StatusBadRequest)
		return
	}

	if err := s.manager.DeleteWorld(worldID); err != nil {
		s.logger.Warnf("Failed to delete world: world_id=%s error=%v", worldID, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("World deleted: world_id=%s", worldID)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world deleted"))
}

// handleWorldRoutes routes requests to world-specific handlers
// Handles paths like /world/{worldID}/catalog, /world/{worldID}/spawn, etc.
func (s *Server) handleWorldRoutes(w http.ResponseWriter, r *http.Request) {
	worldID, remainingPath := extractWorldID(r.URL.Path)
	if worldID == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "/catalog" && r.Method == http.MethodPost:
		s.handleCatalog(w, r)
	case remainingPath == "/spawn" && r.Method == http.MethodPost:
		s.handleSpawn(w, r)
	case remainingPath == "/tick" && r.Method == http.MethodPost:
		s.handleTick(w, r)
	case remainingPath == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r)
	case remainingPath == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r)
	case remainingPath == "/state" && r.Method == http.MethodGet:
		s.handleState(w, r)
	case remainingPath == "/molecules" && r.Method == http.MethodGet:
		s.handleListMolecules(w, r)
	case remainingPath == "/bond" && r.Method == http.MethodPost:
		s.handleBond(w, r)
	case remainingPath == "/break" && r.Method == http.MethodPost:
		s.handleBreak(w, r)
	case remainingPath == "/audit" && r.Method == http.MethodGet:
		s.handleAudit(w, r)
	case remainingPath == "/events" && r.Method == http.MethodGet:
		s.handleListEvents(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodPost:
		s.handleSaveSnapshot(w, r)
	case remainingPath == "/snapshot" && r.Method == http.MethodGet:
		s.handleGetSnapshot(w, r)
	case remainingPath == "/restore" && r.Method == http.MethodPost:
		s.handleRestoreSnapshot(w, r)
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteWorld(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /world/{worldID}/events
// Returns the most recent bond events from the journal
// Query param: limit (default: 50)
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	if _, exists := s.manager.GetWorld(worldID); !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	if s.journal == nil {
		http.Error(w, "journal not configured", http.StatusNotFound)
		return
	}

	limit := 50
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if val, err := strconv.Atoi(lStr); err == nil && val > 0 {
			limit = val
		}
	}

	events, err := s.journal.Recent(worldID, limit)
	if err != nil {
		http.Error(w, "cannot read journal: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
// List all registered notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.globalNotifierMgr.ListNotifiers()

	// Get notifier types
	list := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.globalNotifierMgr.GetNotifier(id)
		if exists {
			list = append(list, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"notifiers": list}); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// POST /notifiers
// Register a new notifier
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://..." } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier sim.Notifier

	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := simnotifiers.NewWebhookNotifier(req.ID, url)

		// Set custom headers if provided
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}

		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.globalNotifierMgr.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
// Unregister a notifier
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	// Extract notifier ID from path
	path := r.URL.Path
	if !strings.HasPrefix(path, "/notifiers/") {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}

	notifierID := strings.TrimPrefix(path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	if err := s.globalNotifierMgr.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

// GET /ws
// Upgrades the connection and streams bond events until the client leaves
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	s.wsNotifier.RegisterClient(conn)

	// Drain client messages so pings are answered; unregister on error
	go func() {
		defer s.wsNotifier.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// POST /world/{worldID}/snapshot
// Triggers a synchronous snapshot save
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	path, err := s.saveSnapshot(world)
	if err != nil {
		s.logger.Errorf("Failed to save snapshot: world_id=%s error=%v", worldID, err)
		http.Error(w, "failed to save snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.logger.Debugf("Snapshot saved: world_id=%s path=%s", worldID, path)

	response := map[string]string{
		"status": "ok",
		"path":   path,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "cannot encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /world/{worldID}/snapshot
// Returns the raw snapshot JSON if it exists
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	if _, exists := s.manager.GetWorld(worldID); !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(s.snapshotPath(worldID))
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Return raw JSON
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// POST /world/{worldID}/restore
// Loads the world's snapshot from disk and replaces its state
func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	worldID, _ := extractWorldID(r.URL.Path)
	world, exists := s.manager.GetWorld(worldID)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
		return
	}

	if s.snapshotDir == "" {
		http.Error(w, "snapshot directory not configured", http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(s.snapshotPath(worldID))
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}

	snapshot, err := sim.DecodeSnapshotJSON(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := world.Restore(snapshot); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Infof("World restored from snapshot: world_id=%s tick=%d", worldID, world.Tick())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world restored"))
}

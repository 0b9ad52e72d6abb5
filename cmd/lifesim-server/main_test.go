package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mauro3422/lifesim/internal/journal"
	"github.com/mauro3422/lifesim/internal/sim"
)

func testServer() *Server {
	return NewServer(NewLogger("error"))
}

func testServerCatalog() *sim.Catalog {
	return sim.NewCatalog("test").WithElements(
		sim.Element{
			ID: "C", Name: "Carbon", MaxBonds: 4, AtomicMass: 12,
			Slots: []sim.Vec3{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}},
		},
		sim.Element{
			ID: "H", Name: "Hydrogen", MaxBonds: 1, AtomicMass: 1,
			Slots: []sim.Vec3{{X: 1}},
		},
	)
}

func createTestWorld(t *testing.T, srv *Server, id sim.WorldID) *sim.World {
	t.Helper()
	world, err := srv.manager.CreateWorld(id, testServerCatalog())
	if err != nil {
		t.Fatalf("Failed to create world: %v", err)
	}
	return world
}

func TestExtractWorldID(t *testing.T) {
	cases := []struct {
		path     string
		wantID   sim.WorldID
		wantRest string
	}{
		{"/world/w1/spawn", "w1", "/spawn"},
		{"/world/w1", "w1", ""},
		{"/world/w1/", "w1", "/"},
		{"/world/", "", ""},
		{"/worlds", "", ""},
		{"/other/w1/spawn", "", ""},
	}
	for _, c := range cases {
		id, rest := extractWorldID(c.path)
		if id != c.wantID || rest != c.wantRest {
			t.Errorf("extractWorldID(%q): expected (%q, %q), got (%q, %q)",
				c.path, c.wantID, c.wantRest, id, rest)
		}
	}
}

func TestServer_HandleHealth(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("Expected 'ok', got '%s'", w.Body.String())
	}
}

func TestServer_HandleCatalog(t *testing.T) {
	srv := testServer()

	body := `{
		"name": "soup",
		"elements": [
			{"id": "C", "max_bonds": 4, "atomic_mass": 12},
			{"id": "H", "max_bonds": 1, "atomic_mass": 1}
		],
		"zones": [
			{"name": "pool", "min_x": -100, "min_y": -100, "max_x": 100, "max_y": 100, "range_multiplier": 1.5}
		]
	}`

	req := httptest.NewRequest(http.MethodPost, "/world/test-w/catalog", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleCatalog(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	world, exists := srv.manager.GetWorld("test-w")
	if !exists {
		t.Fatal("World was not created")
	}
	if _, err := world.Spawn("C", 0, 0, 0); err != nil {
		t.Errorf("Expected catalog to define element C: %v", err)
	}
}

func TestServer_HandleCatalog_ReplacesWorld(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")
	if _, err := world.Spawn("C", 0, 0, 0); err != nil {
		t.Fatalf("Failed to spawn: %v", err)
	}

	body := `{"name": "fresh", "elements": [{"id": "O", "max_bonds": 2, "atomic_mass": 16}]}`
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/catalog", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleCatalog(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	replaced, _ := srv.manager.GetWorld("test-w")
	if len(replaced.Entities()) != 0 {
		t.Errorf("Expected replaced world to be empty, got %d entities", len(replaced.Entities()))
	}
}

func TestServer_HandleCatalog_Errors(t *testing.T) {
	srv := testServer()

	// Invalid JSON
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/catalog", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.handleCatalog(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid json, got %d", w.Code)
	}

	// Valid JSON, invalid catalog
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/catalog",
		strings.NewReader(`{"name": "bad", "elements": [{"id": "C", "max_bonds": 0}]}`))
	w = httptest.NewRecorder()
	srv.handleCatalog(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid catalog, got %d", w.Code)
	}

	// Missing world ID
	req = httptest.NewRequest(http.MethodPost, "/world//catalog", strings.NewReader(`{}`))
	w = httptest.NewRecorder()
	srv.handleCatalog(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing world ID, got %d", w.Code)
	}
}

func TestServer_HandleSpawn(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	body := `{"element": "C", "x": 10, "y": 20, "z": 0}`
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/spawn", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSpawn(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]int
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	id, ok := resp["id"]
	if !ok {
		t.Fatal("Expected 'id' in response")
	}

	view, ok := world.Entity(id)
	if !ok {
		t.Fatal("Spawned entity not found in world")
	}
	if view.Transform.X != 10 || view.Transform.Y != 20 {
		t.Errorf("Expected position (10, 20), got (%f, %f)", view.Transform.X, view.Transform.Y)
	}
}

func TestServer_HandleSpawn_Errors(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "test-w")

	// Unknown world
	req := httptest.NewRequest(http.MethodPost, "/world/missing/spawn",
		strings.NewReader(`{"element": "C"}`))
	w := httptest.NewRecorder()
	srv.handleSpawn(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing world, got %d", w.Code)
	}

	// Unknown element
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/spawn",
		strings.NewReader(`{"element": "Xx"}`))
	w = httptest.NewRecorder()
	srv.handleSpawn(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown element, got %d", w.Code)
	}

	// Invalid JSON
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/spawn", strings.NewReader("{"))
	w = httptest.NewRecorder()
	srv.handleSpawn(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid json, got %d", w.Code)
	}
}

func TestServer_HandleTick(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "test-w")

	req := httptest.NewRequest(http.MethodPost, "/world/test-w/tick?n=5", nil)
	w := httptest.NewRecorder()
	srv.handleTick(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]uint64
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["tick"] != 5 {
		t.Errorf("Expected tick 5, got %d", resp["tick"])
	}

	// Invalid n
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/tick?n=zero", nil)
	w = httptest.NewRecorder()
	srv.handleTick(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid n, got %d", w.Code)
	}
}

func TestServer_HandleStartStop(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	req := httptest.NewRequest(http.MethodPost, "/world/test-w/start?interval=5", nil)
	w := httptest.NewRecorder()
	srv.handleStart(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !world.IsRunning() {
		t.Error("Expected world to be running after start")
	}

	time.Sleep(20 * time.Millisecond)

	req = httptest.NewRequest(http.MethodPost, "/world/test-w/stop", nil)
	w = httptest.NewRecorder()
	srv.handleStop(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if world.IsRunning() {
		t.Error("Expected world to be stopped after stop")
	}
	if world.Tick() == 0 {
		t.Error("Expected ticks to advance while running")
	}

	// Invalid interval
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/start?interval=-1", nil)
	w = httptest.NewRecorder()
	srv.handleStart(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for invalid interval, got %d", w.Code)
	}
}

func TestServer_HandleState(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")
	if _, err := world.Spawn("C", 0, 0, 0); err != nil {
		t.Fatalf("Failed to spawn: %v", err)
	}
	if _, err := world.Spawn("H", 42, 0, 0); err != nil {
		t.Fatalf("Failed to spawn: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/world/test-w/state", nil)
	w := httptest.NewRecorder()
	srv.handleState(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		WorldID  string           `json:"world_id"`
		Tick     uint64           `json:"tick"`
		Running  bool             `json:"running"`
		Entities []sim.EntityView `json:"entities"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.WorldID != "test-w" {
		t.Errorf("Expected world_id 'test-w', got '%s'", resp.WorldID)
	}
	if len(resp.Entities) != 2 {
		t.Errorf("Expected 2 entities, got %d", len(resp.Entities))
	}
	if resp.Running {
		t.Error("Expected running to be false")
	}
}

func TestServer_HandleListMolecules(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	c, _ := world.Spawn("C", 0, 0, 0)
	h, _ := world.Spawn("H", 42, 0, 0)
	if err := world.TryBond(h, c, true); err != nil {
		t.Fatalf("Failed to bond: %v", err)
	}
	if _, err := world.Spawn("H", 500, 500, 0); err != nil {
		t.Fatalf("Failed to spawn: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/world/test-w/molecules", nil)
	w := httptest.NewRecorder()
	srv.handleListMolecules(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var mols []sim.MoleculeInfo
	if err := json.NewDecoder(w.Body).Decode(&mols); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(mols) != 1 {
		t.Fatalf("Expected 1 molecule of size >= 2, got %d", len(mols))
	}
	if len(mols[0].Members) != 2 {
		t.Errorf("Expected molecule of size 2, got %d", len(mols[0].Members))
	}

	// min=1 includes the lone hydrogen
	req = httptest.NewRequest(http.MethodGet, "/world/test-w/molecules?min=1", nil)
	w = httptest.NewRecorder()
	srv.handleListMolecules(w, req)
	mols = nil
	if err := json.NewDecoder(w.Body).Decode(&mols); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(mols) != 2 {
		t.Errorf("Expected 2 molecules with min=1, got %d", len(mols))
	}
}

func TestServer_HandleBond(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	c, _ := world.Spawn("C", 0, 0, 0)
	h, _ := world.Spawn("H", 42, 0, 0)

	body, _ := json.Marshal(map[string]any{"source": h, "target": c})
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/bond", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleBond(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	view, _ := world.Entity(h)
	if view.State.Parent != c {
		t.Errorf("Expected parent %d, got %d", c, view.State.Parent)
	}

	// Bonding again conflicts
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/bond", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.handleBond(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for repeated bond, got %d", w.Code)
	}
}

func TestServer_HandleBond_Cycle(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	ids := make([]int, 4)
	for i := range ids {
		ids[i], _ = world.Spawn("C", float64(i)*42, 0, 0)
	}
	for i := 1; i < 4; i++ {
		if err := world.TryBond(ids[i], ids[i-1], true); err != nil {
			t.Fatalf("Failed to bond chain: %v", err)
		}
	}

	body, _ := json.Marshal(map[string]any{"source": ids[0], "target": ids[3], "cycle": true})
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/bond", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleBond(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	view, _ := world.Entity(ids[0])
	if !view.State.InRing {
		t.Error("Expected entity to be in a ring after cycle bond")
	}
}

func TestServer_HandleBreak(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	c, _ := world.Spawn("C", 0, 0, 0)
	h1, _ := world.Spawn("H", 42, 0, 0)
	h2, _ := world.Spawn("H", 0, 42, 0)
	if err := world.TryBond(h1, c, true); err != nil {
		t.Fatalf("Failed to bond: %v", err)
	}
	if err := world.TryBond(h2, c, true); err != nil {
		t.Fatalf("Failed to bond: %v", err)
	}

	body, _ := json.Marshal(map[string]any{"id": h1})
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/break", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleBreak(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	view, _ := world.Entity(h1)
	if view.State.Parent != sim.None {
		t.Error("Expected bond to be broken")
	}

	// Break all around the carbon
	body, _ = json.Marshal(map[string]any{"id": c, "all": true})
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/break", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.handleBreak(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	view, _ = world.Entity(h2)
	if view.State.Parent != sim.None {
		t.Error("Expected all bonds to be broken")
	}
}

func TestServer_HandleAudit(t *testing.T) {
	srv := testServer()
	world := createTestWorld(t, srv, "test-w")

	c, _ := world.Spawn("C", 0, 0, 0)
	h, _ := world.Spawn("H", 42, 0, 0)
	if err := world.TryBond(h, c, true); err != nil {
		t.Fatalf("Failed to bond: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/world/test-w/audit", nil)
	w := httptest.NewRecorder()
	srv.handleAudit(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var report sim.AuditReport
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !report.Clean() {
		t.Errorf("Expected clean audit report, got %+v", report)
	}
}

func TestServer_HandleListWorlds(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "w1")
	createTestWorld(t, srv, "w2")

	req := httptest.NewRequest(http.MethodGet, "/worlds", nil)
	w := httptest.NewRecorder()
	srv.handleListWorlds(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var resp map[string][]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp["worlds"]) != 2 {
		t.Errorf("Expected 2 worlds, got %d", len(resp["worlds"]))
	}
}

func TestServer_HandleDeleteWorld(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "test-w")

	req := httptest.NewRequest(http.MethodDelete, "/world/test-w", nil)
	w := httptest.NewRecorder()
	srv.handleDeleteWorld(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, exists := srv.manager.GetWorld("test-w"); exists {
		t.Error("Expected world to be deleted")
	}

	// Deleting again fails
	req = httptest.NewRequest(http.MethodDelete, "/world/test-w", nil)
	w = httptest.NewRecorder()
	srv.handleDeleteWorld(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing world, got %d", w.Code)
	}
}

func TestServer_HandleWorldRoutes(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "test-w")

	// Known route dispatches to the handler
	req := httptest.NewRequest(http.MethodGet, "/world/test-w/state", nil)
	w := httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for state route, got %d", w.Code)
	}

	// Wrong method
	req = httptest.NewRequest(http.MethodGet, "/world/test-w/spawn", nil)
	w = httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for GET spawn, got %d", w.Code)
	}

	// Unknown route
	req = httptest.NewRequest(http.MethodPost, "/world/test-w/unknown", nil)
	w = httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown route, got %d", w.Code)
	}

	// Missing world ID
	req = httptest.NewRequest(http.MethodGet, "/world/", nil)
	w = httptest.NewRecorder()
	srv.handleWorldRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing world ID, got %d", w.Code)
	}
}

func TestServer_HandleSaveAndGetSnapshot(t *testing.T) {
	srv := testServer()
	srv.SetSnapshotDir(t.TempDir())
	world := createTestWorld(t, srv, "test-w")

	if _, err := world.Spawn("C", 0, 0, 0); err != nil {
		t.Fatalf("Failed to spawn: %v", err)
	}
	for i := 0; i < 5; i++ {
		world.Step()
	}

	req := httptest.NewRequest(http.MethodPost, "/world/test-w/snapshot", nil)
	w := httptest.NewRecorder()
	srv.handleSaveSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if _, err := os.Stat(resp["path"]); err != nil {
		t.Errorf("Expected snapshot file to exist: %v", err)
	}

	// GET returns the saved snapshot
	req = httptest.NewRequest(http.MethodGet, "/world/test-w/snapshot", nil)
	w = httptest.NewRecorder()
	srv.handleGetSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	snap, err := sim.DecodeSnapshotJSON(w.Body.Bytes())
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.Tick != 5 {
		t.Errorf("Expected snapshot at tick 5, got %d", snap.Tick)
	}
	if len(snap.Atoms) != 1 {
		t.Errorf("Expected 1 atom in snapshot, got %d", len(snap.Atoms))
	}
}

func TestServer_HandleSnapshot_Errors(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "test-w")

	// No snapshot dir configured
	req := httptest.NewRequest(http.MethodPost, "/world/test-w/snapshot", nil)
	w := httptest.NewRecorder()
	srv.handleSaveSnapshot(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 without snapshot dir, got %d", w.Code)
	}

	// Snapshot file missing
	srv.SetSnapshotDir(t.TempDir())
	req = httptest.NewRequest(http.MethodGet, "/world/test-w/snapshot", nil)
	w = httptest.NewRecorder()
	srv.handleGetSnapshot(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing snapshot, got %d", w.Code)
	}

	// Unknown world
	req = httptest.NewRequest(http.MethodPost, "/world/missing/snapshot", nil)
	w = httptest.NewRecorder()
	srv.handleSaveSnapshot(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing world, got %d", w.Code)
	}
}

func TestServer_HandleRestoreSnapshot(t *testing.T) {
	srv := testServer()
	srv.SetSnapshotDir(t.TempDir())
	world := createTestWorld(t, srv, "test-w")

	c, _ := world.Spawn("C", 0, 0, 0)
	h, _ := world.Spawn("H", 42, 0, 0)
	if err := world.TryBond(h, c, true); err != nil {
		t.Fatalf("Failed to bond: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/world/test-w/snapshot", nil)
	w := httptest.NewRecorder()
	srv.handleSaveSnapshot(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Failed to save snapshot: %s", w.Body.String())
	}

	// Mutate the world past the saved state
	world.BreakBond(h)
	if _, err := world.Spawn("H", 100, 100, 0); err != nil {
		t.Fatalf("Failed to spawn: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/world/test-w/restore", nil)
	w = httptest.NewRecorder()
	srv.handleRestoreSnapshot(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if len(world.Entities()) != 2 {
		t.Errorf("Expected 2 entities after restore, got %d", len(world.Entities()))
	}
	view, _ := world.Entity(h)
	if view.State.Parent != c {
		t.Errorf("Expected restored bond to parent %d, got %d", c, view.State.Parent)
	}
}

func TestServer_HandleListEvents(t *testing.T) {
	srv := testServer()
	createTestWorld(t, srv, "test-w")

	// Without a journal the endpoint is unavailable
	req := httptest.NewRequest(http.MethodGet, "/world/test-w/events", nil)
	w := httptest.NewRecorder()
	srv.handleListEvents(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 without journal, got %d", w.Code)
	}

	j, err := journal.Open("journal", filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	defer j.Close()
	srv.SetJournal(j)

	for i, id := range []string{"ev-1", "ev-2"} {
		ev := sim.BondEvent{
			ID: id, WorldID: "test-w", Type: sim.EventBondFormed,
			Tick: uint64(i), EntityA: 0, EntityB: 1,
			RingInstance: sim.None, Timestamp: int64(i),
		}
		if err := j.Notify(context.Background(), ev); err != nil {
			t.Fatalf("Failed to record event: %v", err)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/world/test-w/events?limit=1", nil)
	w = httptest.NewRecorder()
	srv.handleListEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var events []sim.BondEvent
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event with limit=1, got %d", len(events))
	}
	if events[0].ID != "ev-2" {
		t.Errorf("Expected newest event 'ev-2', got '%s'", events[0].ID)
	}
}

func TestServer_HandleNotifiers(t *testing.T) {
	srv := testServer()

	// The websocket broadcaster is preregistered
	req := httptest.NewRequest(http.MethodGet, "/notifiers", nil)
	w := httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp map[string][]map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp["notifiers"]) != 1 || resp["notifiers"][0]["id"] != "ws-broadcast" {
		t.Errorf("Expected preregistered ws-broadcast notifier, got %+v", resp["notifiers"])
	}

	// Register a webhook
	body := `{"type": "webhook", "id": "hook-1", "config": {"url": "http://localhost:9999/hook", "headers": {"X-Api-Key": "secret"}}}`
	req = httptest.NewRequest(http.MethodPost, "/notifiers", strings.NewReader(body))
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Duplicate ID rejected
	req = httptest.NewRequest(http.MethodPost, "/notifiers", strings.NewReader(body))
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate notifier, got %d", w.Code)
	}

	// Unregister
	req = httptest.NewRequest(http.MethodDelete, "/notifiers/hook-1", nil)
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	// Unregister again fails
	req = httptest.NewRequest(http.MethodDelete, "/notifiers/hook-1", nil)
	w = httptest.NewRecorder()
	srv.handleNotifiersRoutes(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for missing notifier, got %d", w.Code)
	}
}

func TestServer_HandleRegisterNotifier_Errors(t *testing.T) {
	srv := testServer()

	cases := []struct {
		name string
		body string
	}{
		{"missing ID", `{"type": "webhook", "config": {"url": "http://x"}}`},
		{"unknown type", `{"type": "carrier-pigeon", "id": "p1"}`},
		{"webhook without URL", `{"type": "webhook", "id": "wh1", "config": {}}`},
		{"invalid json", `{`},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodPost, "/notifiers", strings.NewReader(c.body))
		w := httptest.NewRecorder()
		srv.handleRegisterNotifier(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", c.name, w.Code)
		}
	}
}

func TestServer_MaybeSnapshot(t *testing.T) {
	srv := testServer()
	tmpDir := t.TempDir()
	srv.SetSnapshotDir(tmpDir)
	srv.SetSnapshotEveryTicks(3)
	world := createTestWorld(t, srv, "test-w")

	// Not enough ticks yet
	world.Step()
	srv.maybeSnapshot()
	path := filepath.Join(tmpDir, "test-w.json")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no snapshot before the tick threshold")
	}

	world.Step()
	world.Step()
	srv.maybeSnapshot()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected snapshot after the tick threshold: %v", err)
	}

	// Threshold resets after a save, so one more tick does not rewrite
	world.Step()
	srv.maybeSnapshot()
	snapData, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	snap, err := sim.DecodeSnapshotJSON(snapData)
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if snap.Tick != 3 {
		t.Errorf("Expected snapshot to stay at tick 3, got %d", snap.Tick)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LogLevelDebug},
		{"DEBUG", LogLevelDebug},
		{"info", LogLevelInfo},
		{"warn", LogLevelWarn},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
		{"bogus", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.expected {
			t.Errorf("parseLogLevel(%q): expected %v, got %v", tt.input, tt.expected, got)
		}
	}
}

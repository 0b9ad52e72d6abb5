package sim

import (
	"fmt"
	"sync"
)

// WorldManager manages multiple worlds, each isolated from others
type WorldManager struct {
	mu     sync.RWMutex
	worlds map[WorldID]*World
	logger Logger
}

// NewWorldManager creates a new world manager
func NewWorldManager() *WorldManager {
	return &WorldManager{
		worlds: make(map[WorldID]*World),
		logger: NewNoOpLogger(),
	}
}

// NewWorldManagerWithLogger creates a world manager whose worlds inherit
// the given logger
func NewWorldManagerWithLogger(logger Logger) *WorldManager {
	wm := NewWorldManager()
	if logger != nil {
		wm.logger = logger
	}
	return wm
}

// CreateWorld creates a new world with the given ID and catalog.
// Returns an error if a world with that ID already exists
func (wm *WorldManager) CreateWorld(id WorldID, catalog *Catalog) (*World, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; exists {
		return nil, fmt.Errorf("world with id %s already exists", id)
	}

	world := NewWorld(id, catalog).WithLogger(wm.logger)
	wm.worlds[id] = world
	return world, nil
}

// GetWorld retrieves a world by ID.
// Returns the world and a boolean indicating if it was found
func (wm *WorldManager) GetWorld(id WorldID) (*World, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	world, exists := wm.worlds[id]
	return world, exists
}

// DeleteWorld removes a world by ID.
// Returns an error if the world doesn't exist
func (wm *WorldManager) DeleteWorld(id WorldID) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; !exists {
		return fmt.Errorf("world with id %s does not exist", id)
	}

	// Stop the world if it's running
	world := wm.worlds[id]
	world.Stop()

	delete(wm.worlds, id)
	return nil
}

// ListWorlds returns a list of all world IDs
func (wm *WorldManager) ListWorlds() []WorldID {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ids := make([]WorldID, 0, len(wm.worlds))
	for id := range wm.worlds {
		ids = append(ids, id)
	}
	return ids
}

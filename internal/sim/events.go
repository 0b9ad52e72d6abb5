package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a topology change.
type EventType string

const (
	EventBondFormed      EventType = "bond_formed"
	EventBondBroken      EventType = "bond_broken"
	EventRingFormed      EventType = "ring_formed"
	EventRingInvalidated EventType = "ring_invalidated"
)

// BondEvent represents one topology change in a world. EntityB is -1 for
// events with a single subject; RingInstance is -1 for plain bond events.
type BondEvent struct {
	ID      string    `json:"id"`
	WorldID WorldID   `json:"world_id"`
	Type    EventType `json:"type"`
	Tick    uint64    `json:"tick"`

	EntityA  int       `json:"entity_a"`
	EntityB  int       `json:"entity_b"`
	ElementA ElementID `json:"element_a,omitempty"`
	ElementB ElementID `json:"element_b,omitempty"`

	RingInstance int `json:"ring_instance"`
	RingSize     int `json:"ring_size,omitempty"`
	MoleculeID   int `json:"molecule_id"`

	Timestamp int64 `json:"timestamp"`
}

// JSON returns the event as JSON bytes
func (e BondEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier is the interface that all notification channels must implement
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "webhook", "websocket", "journal")
	Type() string

	// Notify sends a notification event. Returns an error if notification fails.
	// The context can be used for cancellation and timeout.
	Notify(ctx context.Context, event BondEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

// notificationJob represents a job to be processed by the notification queue
type notificationJob struct {
	Event       BondEvent
	NotifierIDs []string
}

// NotificationManager manages all notifiers and routes bond events to them
type NotificationManager struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	jobs      chan notificationJob
	closed    bool
	wg        sync.WaitGroup
}

// NewNotificationManager creates a new notification manager
func NewNotificationManager() *NotificationManager {
	mgr := &NotificationManager{
		notifiers: make(map[string]Notifier),
		jobs:      make(chan notificationJob, 1024),
		closed:    false,
	}
	mgr.startWorkers(1)
	return mgr
}

// RegisterNotifier registers a notifier with the manager
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}

	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()

	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}

	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier removes a notifier from the manager
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}

	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}

	nm.mu.Lock()
	delete(nm.notifiers, id)
	nm.mu.Unlock()

	return nil
}

// GetNotifier retrieves a notifier by ID
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns a list of all registered notifier IDs
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue enqueues a bond event to be processed asynchronously by worker
// goroutines. This method is non-blocking and will drop events if the
// queue is full, so it is safe to call from inside the tick loop.
func (nm *NotificationManager) Enqueue(event BondEvent, notifierIDs []string) {
	if len(notifierIDs) == 0 {
		return
	}

	nm.mu.RLock()
	closed := nm.closed
	nm.mu.RUnlock()

	if closed {
		return
	}

	// Best effort: if channel is full, drop or log and return
	select {
	case nm.jobs <- notificationJob{Event: event, NotifierIDs: notifierIDs}:
	default:
		log.Printf("notification queue full, dropping event: id=%s type=%s", event.ID, event.Type)
	}
}

// startWorkers starts n worker goroutines to process notification jobs
func (nm *NotificationManager) startWorkers(n int) {
	for range n {
		nm.wg.Add(1)
		go nm.worker()
	}
}

// worker processes notification jobs from the queue
func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for job := range nm.jobs {
		nm.dispatchJob(job)
	}
}

// dispatchJob dispatches a notification job to all specified notifiers
func (nm *NotificationManager) dispatchJob(job notificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// For each notifier ID, attempt delivery with retry/backoff
	for _, id := range job.NotifierIDs {
		nm.notifyWithRetry(ctx, id, job.Event)
	}
}

// notifyWithRetry attempts to send a notification with exponential backoff retry
func (nm *NotificationManager) notifyWithRetry(ctx context.Context, notifierID string, event BondEvent) {
	nm.mu.RLock()
	notifier, ok := nm.notifiers[notifierID]
	nm.mu.RUnlock()

	if !ok {
		log.Printf("notification failed: notifier=%s error=notifier not found", notifierID)
		return
	}

	// Basic retry/backoff policy
	const maxRetries = 3
	backoff := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := notifier.Notify(ctx, event)
		if err == nil {
			return
		}

		// Log the failure
		log.Printf("notification failed: notifier=%s attempt=%d error=%v", notifierID, attempt+1, err)

		if attempt == maxRetries {
			// Max retries reached, give up
			log.Printf("notification failed after %d attempts: notifier=%s", maxRetries+1, notifierID)
			return
		}

		// Exponential backoff
		select {
		case <-ctx.Done():
			// Context cancelled or timed out
			return
		case <-time.After(backoff):
			backoff *= 2 // exponential backoff
		}
	}
}

// Close closes all registered notifiers and shuts down worker goroutines
func (nm *NotificationManager) Close() error {
	// Mark as closed and close the jobs channel
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	// Wait for all workers to finish processing
	nm.wg.Wait()

	// Close all registered notifiers
	nm.mu.Lock()
	var errors []error
	for id, notifier := range nm.notifiers {
		if err := notifier.Close(); err != nil {
			errors = append(errors, fmt.Errorf("error closing notifier %s: %w", id, err))
		}
	}
	nm.notifiers = make(map[string]Notifier)
	nm.mu.Unlock()

	if len(errors) > 0 {
		return fmt.Errorf("errors closing notifiers: %v", errors)
	}

	return nil
}

// emit records a topology change as a BondEvent and fans it out to every
// registered notifier. Called with the world lock held, so it must never
// block; delivery happens on the manager's workers.
func (w *World) emit(typ EventType, a, b, ringInstance, ringSize int) {
	if w.notifications == nil {
		return
	}
	ids := w.notifications.ListNotifiers()
	if len(ids) == 0 {
		return
	}

	event := BondEvent{
		ID:           uuid.NewString(),
		WorldID:      w.id,
		Type:         typ,
		Tick:         w.tick,
		EntityA:      a,
		EntityB:      b,
		RingInstance: ringInstance,
		RingSize:     ringSize,
		MoleculeID:   None,
		Timestamp:    time.Now().Unix(),
	}
	if a >= 0 && a < len(w.atoms) {
		event.ElementA = w.atoms[a].Element
		event.MoleculeID = w.states[a].MoleculeID
	}
	if b >= 0 && b < len(w.atoms) {
		event.ElementB = w.atoms[b].Element
	}

	w.notifications.Enqueue(event, ids)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"solar_planner/internal/domain"
	"solar_planner/internal/repository"
	"solar_planner/internal/sizing"
	"solar_planner/pkg/logger"

	"github.com/jonboulle/clockwork"
)

var (
	ErrEmptyName       = errors.New("project name must not be empty")
	ErrNoPendingDelete = errors.New("no delete is pending")
)

const writeTimeout = 30 * time.Second

// GatewayStats summarizes autosave activity
type GatewayStats struct {
	Commits       uint64    `json:"commits"`
	Skipped       uint64    `json:"skipped"`
	Failed        uint64    `json:"failed"`
	Pending       int       `json:"pending"`
	PendingDelete string    `json:"pendingDelete,omitempty"`
	LastCommit    time.Time `json:"lastCommit"`
}

// Gateway mediates every write of the project list. Edits are coalesced
// per record and committed once the record has been quiet for the
// debounce window; create, rename and delete write through immediately.
type Gateway struct {
	repo     *ProjectRepository
	sink     repository.SnapshotSink
	clock    clockwork.Clock
	debounce time.Duration

	mu            sync.Mutex
	timers        map[string]clockwork.Timer
	generation    map[string]uint64
	dirty         map[string]bool
	pendingDelete string
	closed        bool
	inflight      int
	idle          *sync.Cond

	// writeMu serializes commits and guards committed
	writeMu    sync.Mutex
	committed  map[string]string
	lastCommit time.Time

	commits uint64
	skipped uint64
	failed  uint64
}

// NewGateway wraps a loaded repository. sink may be nil.
func NewGateway(repo *ProjectRepository, sink repository.SnapshotSink, clock clockwork.Clock, debounce time.Duration) *Gateway {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	g := &Gateway{
		repo:       repo,
		sink:       sink,
		clock:      clock,
		debounce:   debounce,
		timers:     make(map[string]clockwork.Timer),
		generation: make(map[string]uint64),
		dirty:      make(map[string]bool),
		committed:  make(map[string]string),
	}
	g.idle = sync.NewCond(&g.mu)

	// Loaded records count as committed so unchanged reopenings write nothing
	for _, p := range repo.List() {
		if key, err := contentKey(p); err == nil {
			g.committed[p.ID] = key
		}
	}

	logger.Infof("✓ Gateway started: %v debounce, %d projects", debounce, repo.Len())
	return g
}

// CreateProject appends a default project and writes it immediately
func (g *Gateway) CreateProject(ctx context.Context, name string) (domain.ProjectRecord, error) {
	p := sizing.NewDefaultProject(name, g.now())
	if err := g.repo.Add(p); err != nil {
		return domain.ProjectRecord{}, err
	}

	g.writeThrough(ctx, p)
	logger.WithFields(map[string]interface{}{"project_id": p.ID}).Infof("Created project %q", p.ProjectName)
	return p, nil
}

// OpenProject returns the live copy of a project
func (g *Gateway) OpenProject(id string) (domain.ProjectRecord, error) {
	p, ok := g.repo.Get(id)
	if !ok {
		return domain.ProjectRecord{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

// RenameProject changes the name and writes through
func (g *Gateway) RenameProject(ctx context.Context, id, name string) (domain.ProjectRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ProjectRecord{}, ErrEmptyName
	}

	p, ok := g.repo.Get(id)
	if !ok {
		return domain.ProjectRecord{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	p.ProjectName = name
	p.LastUpdated = g.now()
	if err := g.repo.Replace(p); err != nil {
		return domain.ProjectRecord{}, err
	}

	g.writeThrough(ctx, p)
	return p, nil
}

// RequestDelete marks id for deletion until confirmed or cancelled
func (g *Gateway) RequestDelete(id string) error {
	if _, ok := g.repo.Get(id); !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	g.mu.Lock()
	g.pendingDelete = id
	g.mu.Unlock()
	return nil
}

// PendingDelete returns the id awaiting confirmation, if any
func (g *Gateway) PendingDelete() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pendingDelete
}

// CancelDelete clears the pending request
func (g *Gateway) CancelDelete() {
	g.mu.Lock()
	g.pendingDelete = ""
	g.mu.Unlock()
}

// ConfirmDelete removes the pending project, drops its scheduled
// autosave and writes the shortened list. It returns the removed id.
func (g *Gateway) ConfirmDelete(ctx context.Context) (string, error) {
	g.mu.Lock()
	id := g.pendingDelete
	g.pendingDelete = ""
	if id != "" {
		g.cancelTimerLocked(id)
		delete(g.dirty, id)
	}
	g.mu.Unlock()

	if id == "" {
		return "", ErrNoPendingDelete
	}
	if !g.repo.Remove(id) {
		return "", fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	g.writeMu.Lock()
	delete(g.committed, id)
	g.save(ctx)
	g.writeMu.Unlock()

	logger.WithFields(map[string]interface{}{"project_id": id}).Info("Deleted project")
	return id, nil
}

// UpdateProject replaces the live copy and schedules a debounced commit
func (g *Gateway) UpdateProject(p domain.ProjectRecord) {
	if err := g.repo.ReplaceContent(p); err != nil {
		logger.Warnf("Ignoring update: %v", err)
		return
	}

	g.mu.Lock()
	g.dirty[p.ID] = true
	if g.closed {
		g.mu.Unlock()
		g.commit(context.Background(), p.ID)
		return
	}

	g.cancelTimerLocked(p.ID)
	gen := g.generation[p.ID]
	id := p.ID
	g.timers[id] = g.clock.AfterFunc(g.debounce, func() {
		g.fire(id, gen)
	})
	g.mu.Unlock()
}

// Flush commits a pending or previously failed write for id right away
func (g *Gateway) Flush(ctx context.Context, id string) {
	g.mu.Lock()
	_, pending := g.timers[id]
	pending = pending || g.dirty[id]
	g.cancelTimerLocked(id)
	g.mu.Unlock()

	if pending {
		g.commit(ctx, id)
	}
	g.waitIdle()
}

// FlushAll commits every pending or previously failed write
func (g *Gateway) FlushAll(ctx context.Context) {
	g.mu.Lock()
	ids := make([]string, 0, len(g.dirty))
	for id := range g.dirty {
		ids = append(ids, id)
	}
	for id := range g.timers {
		if !g.dirty[id] {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		g.cancelTimerLocked(id)
	}
	g.mu.Unlock()

	for _, id := range ids {
		g.commit(ctx, id)
	}
	g.waitIdle()
}

// Close flushes pending writes. Later updates commit synchronously.
func (g *Gateway) Close(ctx context.Context) {
	g.FlushAll(ctx)

	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	logger.Infof("✓ Gateway closed. Total: %d commits, %d skipped, %d failed",
		atomic.LoadUint64(&g.commits),
		atomic.LoadUint64(&g.skipped),
		atomic.LoadUint64(&g.failed))
}

// Stats returns gateway statistics
func (g *Gateway) Stats() GatewayStats {
	g.mu.Lock()
	pending := len(g.timers)
	pendingDelete := g.pendingDelete
	g.mu.Unlock()

	g.writeMu.Lock()
	last := g.lastCommit
	g.writeMu.Unlock()

	return GatewayStats{
		Commits:       atomic.LoadUint64(&g.commits),
		Skipped:       atomic.LoadUint64(&g.skipped),
		Failed:        atomic.LoadUint64(&g.failed),
		Pending:       pending,
		PendingDelete: pendingDelete,
		LastCommit:    last,
	}
}

func (g *Gateway) fire(id string, gen uint64) {
	g.mu.Lock()
	if g.generation[id] != gen {
		// rescheduled or flushed after this timer was armed
		g.mu.Unlock()
		return
	}
	delete(g.timers, id)
	g.inflight++
	g.mu.Unlock()

	g.commit(context.Background(), id)

	g.mu.Lock()
	g.inflight--
	if g.inflight == 0 {
		g.idle.Broadcast()
	}
	g.mu.Unlock()
}

// waitIdle blocks until no timer callback is mid-commit
func (g *Gateway) waitIdle() {
	g.mu.Lock()
	for g.inflight > 0 {
		g.idle.Wait()
	}
	g.mu.Unlock()
}

// commit writes the list if id's content differs from what was last committed
func (g *Gateway) commit(ctx context.Context, id string) {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	p, ok := g.repo.Get(id)
	if !ok {
		return
	}

	key, err := contentKey(p)
	if err != nil {
		atomic.AddUint64(&g.failed, 1)
		logger.Errorf("❌ Encode project %s failed: %v", id, err)
		return
	}
	if g.committed[id] == key {
		atomic.AddUint64(&g.skipped, 1)
		logger.Debugf("Project %s unchanged, skipping write", id)
		g.markClean(id, key)
		return
	}

	stamped := p.LastUpdated
	p, _ = g.repo.Touch(id, g.now())
	if !g.save(ctx) {
		// the record stays dirty and keeps its last committed stamp
		g.repo.Touch(id, stamped)
		return
	}
	g.committed[id] = key
	g.markClean(id, key)
	g.snapshot(ctx, p)
}

// markClean clears id's dirty flag unless the live content moved on
// while key was being written. Caller holds writeMu.
func (g *Gateway) markClean(id, key string) {
	if p, ok := g.repo.Get(id); ok {
		if live, err := contentKey(p); err == nil && live != key {
			return
		}
	}
	g.mu.Lock()
	delete(g.dirty, id)
	g.mu.Unlock()
}

// writeThrough commits p immediately. Caller has already updated the repo.
func (g *Gateway) writeThrough(ctx context.Context, p domain.ProjectRecord) {
	g.mu.Lock()
	g.cancelTimerLocked(p.ID)
	g.mu.Unlock()

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if !g.save(ctx) {
		g.mu.Lock()
		g.dirty[p.ID] = true
		g.mu.Unlock()
		return
	}
	if key, err := contentKey(p); err == nil {
		g.committed[p.ID] = key
		g.markClean(p.ID, key)
	}
	g.snapshot(ctx, p)
}

// save writes the full list. Failures are logged and counted. Caller holds writeMu.
func (g *Gateway) save(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	start := g.clock.Now()
	if err := g.repo.SaveAll(ctx); err != nil {
		atomic.AddUint64(&g.failed, 1)
		logger.Errorf("❌ Project write FAILED (%d projects): %v", g.repo.Len(), err)
		return false
	}

	atomic.AddUint64(&g.commits, 1)
	g.lastCommit = g.clock.Now()
	logger.Debugf("✓ Wrote %d projects in %v", g.repo.Len(), g.clock.Since(start).Round(time.Millisecond))
	return true
}

func (g *Gateway) snapshot(ctx context.Context, p domain.ProjectRecord) {
	if g.sink == nil {
		return
	}
	if err := g.sink.Record(ctx, p, sizing.Derive(p)); err != nil {
		logger.Warnf("Sizing snapshot for %s failed: %v", p.ID, err)
	}
}

// cancelTimerLocked stops id's timer and invalidates any callback already
// in flight. Caller holds mu.
func (g *Gateway) cancelTimerLocked(id string) {
	if t, ok := g.timers[id]; ok {
		t.Stop()
		delete(g.timers, id)
	}
	g.generation[id]++
}

func (g *Gateway) now() time.Time {
	return g.clock.Now().UTC()
}

// contentKey encodes p without its timestamp
func contentKey(p domain.ProjectRecord) (string, error) {
	p.LastUpdated = time.Time{}
	data, err := repository.EncodeProjects([]domain.ProjectRecord{p})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

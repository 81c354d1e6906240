package store

import (
	"sort"
	"sync"
	"time"

	"estatecast/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs handler tests and
// DB-less development runs.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[string]domain.Account
	accountIDs  []string
	posts       map[string]domain.Post
	postIDs     []string
	generations map[string]domain.ImageGeneration
	genIDs      []string
	schedules   map[string]domain.Schedule
	scheduleIDs []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[string]domain.Account),
		posts:       make(map[string]domain.Post),
		generations: make(map[string]domain.ImageGeneration),
		schedules:   make(map[string]domain.Schedule),
	}
}

// SaveAccount stores or replaces an account and tracks insertion order.
func (m *MemoryStore) SaveAccount(a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[a.ID]; !exists {
		m.accountIDs = append(m.accountIDs, a.ID)
	}
	m.accounts[a.ID] = a
	return nil
}

// GetAccount retrieves an account by ID.
func (m *MemoryStore) GetAccount(id string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	return a, ok, nil
}

// GetAccountByExternal looks up an account by its platform identity.
func (m *MemoryStore) GetAccountByExternal(userID string, platform domain.Platform, platformAccountID string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.accountIDs {
		a, ok := m.accounts[id]
		if !ok {
			continue
		}
		if a.UserID == userID && a.Platform == platform && a.PlatformAccountID == platformAccountID {
			return a, true, nil
		}
	}
	return domain.Account{}, false, nil
}

// ListAccountsByUser returns a user's accounts in insertion order with post
// counts attached.
func (m *MemoryStore) ListAccountsByUser(userID string, activeOnly bool) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, p := range m.posts {
		counts[p.AccountID]++
	}
	res := make([]domain.Account, 0, len(m.accountIDs))
	for _, id := range m.accountIDs {
		a, ok := m.accounts[id]
		if !ok || a.UserID != userID {
			continue
		}
		if activeOnly && !a.Active {
			continue
		}
		a.PostsCount = counts[a.ID]
		res = append(res, a)
	}
	return res, nil
}

// DeactivateAccount disconnects an account.
func (m *MemoryStore) DeactivateAccount(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil
	}
	a.Active = false
	a.UpdatedAt = time.Now().UTC()
	m.accounts[id] = a
	return nil
}

// SavePost stores or replaces a post.
func (m *MemoryStore) SavePost(p domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.posts[p.ID]; !exists {
		m.postIDs = append(m.postIDs, p.ID)
	}
	m.posts[p.ID] = p
	return nil
}

// GetPost retrieves a post by ID.
func (m *MemoryStore) GetPost(id string) (domain.Post, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	return p, ok, nil
}

// ListPostsByUser returns a user's posts newest first.
func (m *MemoryStore) ListPostsByUser(userID string, status domain.PostStatus, limit int) ([]domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Post, 0, len(m.postIDs))
	for _, id := range m.postIDs {
		p, ok := m.posts[id]
		if !ok {
			continue
		}
		a, ok := m.accounts[p.AccountID]
		if !ok || a.UserID != userID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		res = append(res, p)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// ListDuePosts returns approved posts whose scheduled time has passed,
// oldest first.
func (m *MemoryStore) ListDuePosts(now time.Time, limit int) ([]domain.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	res := make([]domain.Post, 0, len(m.postIDs))
	for _, id := range m.postIDs {
		p, ok := m.posts[id]
		if !ok || p.Status != domain.PostApproved || p.ScheduledAt == nil {
			continue
		}
		if p.ScheduledAt.After(now) {
			continue
		}
		res = append(res, p)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].ScheduledAt.Before(*res[j].ScheduledAt)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// MarkScheduled claims an approved post for publishing.
func (m *MemoryStore) MarkScheduled(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != domain.PostApproved {
		return false, nil
	}
	p.Status = domain.PostScheduled
	p.UpdatedAt = time.Now().UTC()
	m.posts[id] = p
	return true, nil
}

// DeletePost removes a post.
func (m *MemoryStore) DeletePost(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.posts, id)
	filtered := m.postIDs[:0]
	for _, item := range m.postIDs {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.postIDs = filtered
	return nil
}

// SaveGeneration stores or replaces an image generation record.
func (m *MemoryStore) SaveGeneration(g domain.ImageGeneration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.generations[g.ID]; !exists {
		m.genIDs = append(m.genIDs, g.ID)
	}
	m.generations[g.ID] = g
	return nil
}

// GetGeneration retrieves an image generation record.
func (m *MemoryStore) GetGeneration(id string) (domain.ImageGeneration, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.generations[id]
	return g, ok, nil
}

// ListGenerations returns recent generation records, newest first.
func (m *MemoryStore) ListGenerations(limit int) ([]domain.ImageGeneration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	res := make([]domain.ImageGeneration, 0, len(m.genIDs))
	for i := len(m.genIDs) - 1; i >= 0 && len(res) < limit; i-- {
		if g, ok := m.generations[m.genIDs[i]]; ok {
			res = append(res, g)
		}
	}
	return res, nil
}

// SaveSchedule stores or replaces a schedule.
func (m *MemoryStore) SaveSchedule(sc domain.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.schedules[sc.ID]; !exists {
		m.scheduleIDs = append(m.scheduleIDs, sc.ID)
	}
	m.schedules[sc.ID] = sc
	return nil
}

// GetSchedule retrieves a schedule.
func (m *MemoryStore) GetSchedule(id string) (domain.Schedule, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc, ok := m.schedules[id]
	return sc, ok, nil
}

// ListSchedulesByUser returns a user's schedules in insertion order.
func (m *MemoryStore) ListSchedulesByUser(userID string) ([]domain.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Schedule, 0, len(m.scheduleIDs))
	for _, id := range m.scheduleIDs {
		if sc, ok := m.schedules[id]; ok && sc.UserID == userID {
			res = append(res, sc)
		}
	}
	return res, nil
}

// DeleteSchedule removes a schedule.
func (m *MemoryStore) DeleteSchedule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.schedules, id)
	filtered := m.scheduleIDs[:0]
	for _, item := range m.scheduleIDs {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.scheduleIDs = filtered
	return nil
}

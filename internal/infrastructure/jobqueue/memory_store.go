package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/xiebiao/bookreview/internal/domain/job"
)

// MemoryStore 进程内任务状态存储（local后端 + jobs.store=memory）
// 已结束的任务超过ttl后在下次写入时清理
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]job.Record
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		records: make(map[string]job.Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save 保存任务记录（存副本，调用方后续修改不影响存储）
func (s *MemoryStore) Save(_ context.Context, record *job.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()
	s.records[record.ID] = *record
	return nil
}

// Get 查询任务记录
func (s *MemoryStore) Get(_ context.Context, id string) (*job.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok || s.expired(&record) {
		return nil, job.ErrJobNotFound
	}
	return &record, nil
}

// ListActive 查询未结束的任务
func (s *MemoryStore) ListActive(_ context.Context) ([]*job.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]*job.Record, 0)
	for _, record := range s.records {
		if record.State.Active() {
			r := record
			active = append(active, &r)
		}
	}
	job.SortByCreatedAt(active)
	return active, nil
}

func (s *MemoryStore) expired(record *job.Record) bool {
	if s.ttl <= 0 || record.FinishedAt == nil {
		return false
	}
	return s.now().Sub(*record.FinishedAt) > s.ttl
}

func (s *MemoryStore) evictLocked() {
	for id, record := range s.records {
		if s.expired(&record) {
			delete(s.records, id)
		}
	}
}

package store

import (
	"errors"
	"sync"
	"time"

	"aerokpi/internal/model"
)

// ErrNotFound 报表不存在（未生成或已被淘汰）
var ErrNotFound = errors.New("report not found")

// DefaultLimit 默认保留的报表数
const DefaultLimit = 20

// ReportInfo 报表摘要（列表展示用）
type ReportInfo struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
	DateFrom  string    `json:"dateFrom"`
	DateTo    string    `json:"dateTo"`
	Days      int       `json:"days"`
	Columns   int       `json:"columns"`
	Sources   []string  `json:"sources"` // 产生了数据的来源
}

type entry struct {
	report    *model.Report
	createdAt time.Time
}

// MemoryStore 内存报表存储：按运行 ID 保留最近的报表，超出上限时淘汰最旧的
type MemoryStore struct {
	limit   int
	order   []string // 旧 -> 新
	reports map[string]entry
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore 创建内存存储；limit <= 0 时使用 DefaultLimit
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &MemoryStore{
		limit:   limit,
		reports: make(map[string]entry),
		now:     time.Now,
	}
}

// Put 保存报表；同一运行 ID 重复保存时覆盖并移到最新
func (s *MemoryStore) Put(report *model.Report) error {
	if report == nil || report.RunID == "" {
		return errors.New("report without run id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[report.RunID]; ok {
		s.removeLocked(report.RunID)
	}
	s.reports[report.RunID] = entry{report: report, createdAt: s.now()}
	s.order = append(s.order, report.RunID)

	for len(s.order) > s.limit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.reports, oldest)
	}
	return nil
}

// Get 获取报表
func (s *MemoryStore) Get(runID string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.reports[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return e.report, nil
}

// List 报表摘要，最新的在前
func (s *MemoryStore) List() []ReportInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ReportInfo, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		e := s.reports[s.order[i]]
		out = append(out, infoOf(e))
	}
	return out
}

// Count 报表数
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Delete 删除报表
func (s *MemoryStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[runID]; !ok {
		return ErrNotFound
	}
	s.removeLocked(runID)
	return nil
}

func (s *MemoryStore) removeLocked(runID string) {
	delete(s.reports, runID)
	for i, id := range s.order {
		if id == runID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func infoOf(e entry) ReportInfo {
	r := e.report
	info := ReportInfo{
		RunID:     r.RunID,
		CreatedAt: e.createdAt,
		DateFrom:  r.DateFrom.Format(model.DateLayout),
		DateTo:    r.DateTo.Format(model.DateLayout),
		Sources:   []string{},
	}
	if r.Daily != nil {
		info.Days = len(r.Daily.Rows)
		info.Columns = len(r.Daily.Columns)
	}
	for _, src := range r.Sources {
		if src.Contributed() {
			info.Sources = append(info.Sources, string(src.Source))
		}
	}
	return info
}

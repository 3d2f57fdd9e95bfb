package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wellsync/internal/infrastructure/errors"
	"wellsync/internal/platform"
	"wellsync/internal/repository"
	"wellsync/internal/types"
)

// MockRepository is an in-memory SampleRepository with the same merge semantics as SQLite
type MockRepository struct {
	mu              sync.RWMutex
	samples         map[string]*types.AppSample // key: day|package
	accumulateCalls int
	rangeCalls      int
	deleteCalls     int
	lastCutoff      time.Time
	shouldFailSave  bool
	shouldFailLoad  bool
}

var _ repository.SampleRepository = (*MockRepository)(nil)

func NewMockRepository() *MockRepository {
	return &MockRepository{samples: make(map[string]*types.AppSample)}
}

// SetFailureModes configures the mock to simulate failures
func (m *MockRepository) SetFailureModes(save, load bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailSave = save
	m.shouldFailLoad = load
}

// GetCallCounts returns the number of times each method was called
func (m *MockRepository) GetCallCounts() (accumulate, rangeQueries, deletes int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accumulateCalls, m.rangeCalls, m.deleteCalls
}

func (m *MockRepository) AccumulateSamples(ctx context.Context, samples []types.AppSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accumulateCalls++
	if m.shouldFailSave {
		return errors.NewRepositoryError("AccumulateSamples", fmt.Errorf("mock save failure"), errors.ErrCodeBusy)
	}

	for _, s := range samples {
		key := tallyKey(s.Date, s.PackageName)
		existing, ok := m.samples[key]
		if !ok {
			cp := s
			m.samples[key] = &cp
			continue
		}
		existing.Seconds += s.Seconds
		existing.AppName = s.AppName
		if s.FirstSeen.Before(existing.FirstSeen) {
			existing.FirstSeen = s.FirstSeen
		}
		if s.LastSeen.After(existing.LastSeen) {
			existing.LastSeen = s.LastSeen
		}
		if s.ExePath != "" {
			existing.ExePath = s.ExePath
		}
	}
	return nil
}

func (m *MockRepository) GetSamplesInRange(ctx context.Context, startDay, endDay time.Time) ([]types.AppSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rangeCalls++
	if m.shouldFailLoad {
		return nil, errors.NewRepositoryError("GetSamplesInRange", fmt.Errorf("mock load failure"), errors.ErrCodeConnection)
	}

	var out []types.AppSample
	for _, s := range m.samples {
		if s.Date.Before(startDay) || s.Date.After(endDay) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].PackageName < out[j].PackageName
	})
	return out, nil
}

func (m *MockRepository) DeleteOldUsage(ctx context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleteCalls++
	m.lastCutoff = olderThan

	var deleted int64
	for key, s := range m.samples {
		if s.Date.Before(types.StartOfDay(olderThan)) {
			delete(m.samples, key)
			deleted++
		}
	}
	return deleted, nil
}

// seed stores one sample directly
func (m *MockRepository) seed(s types.AppSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[tallyKey(s.Date, s.PackageName)] = &s
}

func (m *MockRepository) sample(day time.Time, pkg string) (types.AppSample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.samples[tallyKey(day, pkg)]
	if !ok {
		return types.AppSample{}, false
	}
	return *s, true
}

// fakeForeground is a ForegroundAPI whose current app is set by the test
type fakeForeground struct {
	mu        sync.Mutex
	supported bool
	current   *platform.AppInfo
}

func (f *fakeForeground) Supported() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.supported
}

func (f *fakeForeground) CurrentApp() (*platform.AppInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.supported || f.current == nil {
		return nil, false
	}
	cp := *f.current
	return &cp, true
}

func (f *fakeForeground) set(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		f.current = nil
		return
	}
	f.current = platform.AppInfoFromPath(`C:\Program Files\` + name + `\` + name + `.exe`)
}

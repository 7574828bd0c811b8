package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
	"ccm-system/internal/repositories"
	apperrors "ccm-system/pkg/errors"
)

// fakeTxManager runs the callback directly; the fakes below do not care about
// the tx handle.
type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type fakeEquipmentRepo struct {
	mu     sync.Mutex
	byCcm  map[string]*entities.Equipment
	nextID uint64
}

func newFakeEquipmentRepo() *fakeEquipmentRepo {
	return &fakeEquipmentRepo{byCcm: make(map[string]*entities.Equipment), nextID: 1}
}

func (f *fakeEquipmentRepo) List(ctx context.Context, status string) ([]entities.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Equipment
	for _, e := range f.byCcm {
		if status == "" || e.Status == status {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEquipmentRepo) FindByCcmID(ctx context.Context, q repositories.Querier, ccmID string) (*entities.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byCcm[ccmID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEquipmentRepo) FindByID(ctx context.Context, id uint64) (*entities.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byCcm {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeEquipmentRepo) StatusCounts(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range f.byCcm {
		counts[e.Status]++
	}
	return counts, nil
}

func (f *fakeEquipmentRepo) Create(ctx context.Context, q repositories.Querier, e entities.Equipment) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byCcm[e.CcmID]; exists {
		return 0, apperrors.ErrConflict
	}
	e.ID = f.nextID
	f.nextID++
	f.byCcm[e.CcmID] = &e
	return e.ID, nil
}

func (f *fakeEquipmentRepo) Update(ctx context.Context, q repositories.Querier, ccmID string, e entities.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byCcm[ccmID]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.ID = existing.ID
	e.CcmID = ccmID
	e.UpdCnt = existing.UpdCnt + 1
	f.byCcm[ccmID] = &e
	return nil
}

func (f *fakeEquipmentRepo) ApplyBatchItem(ctx context.Context, q repositories.Querier, item dto.BatchUpdateItemDTO, updateBy string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byCcm[item.CcmID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if item.Status != nil {
		e.Status = *item.Status
	}
	if item.SubStatus != nil {
		e.SubStatus = *item.SubStatus
	}
	if item.Comment != nil {
		e.Comment = *item.Comment
	}
	if item.StartTime != nil {
		if *item.StartTime == "" {
			e.StartTime = null.Time{}
		} else if t, err := time.ParseInLocation("2006-01-02 15:04:05", *item.StartTime, time.Local); err == nil {
			e.StartTime = null.TimeFrom(t)
		}
	}
	e.UpdateBy = updateBy
	e.UpdateTime = null.TimeFrom(now)
	e.UpdCnt++
	return nil
}

func (f *fakeEquipmentRepo) Delete(ctx context.Context, q repositories.Querier, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ccmID, e := range f.byCcm {
		if e.ID == id {
			delete(f.byCcm, ccmID)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

type fakeLogRepo struct {
	mu      sync.Mutex
	entries []entities.EquipmentLog
}

func (f *fakeLogRepo) ListByCcmID(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.EquipmentLog
	for _, e := range f.entries {
		if e.CcIDFk == ccmID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) Insert(ctx context.Context, q repositories.Querier, log entities.EquipmentLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.CclID = uint64(len(f.entries) + 1)
	f.entries = append(f.entries, log)
	return nil
}

// fakeCache is an in-memory CacheRepositoryInterface; expirations are ignored
// except for recording that they were requested.
type fakeCache struct {
	mu    sync.Mutex
	store map[string]string
	nums  map[string]int64
	sets  int
	dels  []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]string), nums: make(map[string]int64)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key], nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := value.(string); ok {
		f.store[key] = s
	}
	f.sets++
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.store, key)
		delete(f.nums, key)
		f.dels = append(f.dels, key)
	}
	return nil
}

func (f *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nums[key]++
	return f.nums[key], nil
}

func (f *fakeCache) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeCache) deleted(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.dels {
		if d == key {
			return true
		}
	}
	return false
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entities.User)}
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, username, passwordHash string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[username]; exists {
		return 0, apperrors.ErrConflict
	}
	id := uint64(len(f.users) + 1)
	f.users[username] = &entities.User{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[username]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

type fakeReportRepo struct {
	mu     sync.Mutex
	byID   map[uint64]*entities.Report
	nextID uint64
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{byID: make(map[uint64]*entities.Report), nextID: 1}
}

func (f *fakeReportRepo) List(ctx context.Context) ([]entities.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entities.Report
	for _, r := range f.byID {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReportRepo) FindByID(ctx context.Context, id uint64) (*entities.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReportRepo) Create(ctx context.Context, r entities.Report) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.nextID
	f.nextID++
	f.byID[r.ID] = &r
	return r.ID, nil
}

func (f *fakeReportRepo) UpdateProcessing(ctx context.Context, id uint64, status string, processer, processNotes null.String, processTime null.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.Status = status
	r.Processer = processer
	r.ProcessNotes = processNotes
	r.ProcessTime = processTime
	return nil
}

func (f *fakeReportRepo) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeFileStorage records saves and deletes without touching disk.
type fakeFileStorage struct {
	mu      sync.Mutex
	saved   []string
	removed []string
}

func (f *fakeFileStorage) Save(src io.Reader, name, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := prefix + "/" + strings.ToLower(name)
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeFileStorage) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	return nil
}

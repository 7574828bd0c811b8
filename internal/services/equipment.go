package services

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
	"ccm-system/internal/repositories"
	apperrors "ccm-system/pkg/errors"
	"ccm-system/pkg/utils"
)

const statusCountsCacheKey = "ccm:status_counts"

type EquipmentServiceInterface interface {
	List(ctx context.Context, status string) ([]entities.Equipment, error)
	StatusCounts(ctx context.Context) (map[string]int, error)
	Create(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error)
	Update(ctx context.Context, ccmID string, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error)
	BatchUpdate(ctx context.Context, items []dto.BatchUpdateItemDTO) (int, error)
	ForceDelete(ctx context.Context, id uint64, updateBy string) error
	Logs(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error)
}

type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	logRepo       repositories.EquipmentLogRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	txManager     repositories.TxManagerInterface
	countsTTL     time.Duration
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	logRepo repositories.EquipmentLogRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	txManager repositories.TxManagerInterface,
	countsTTL time.Duration,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		logRepo:       logRepo,
		cacheRepo:     cacheRepo,
		txManager:     txManager,
		countsTTL:     countsTTL,
		logger:        logger,
	}
}

func (s *EquipmentService) List(ctx context.Context, status string) ([]entities.Equipment, error) {
	return s.equipmentRepo.List(ctx, status)
}

func (s *EquipmentService) StatusCounts(ctx context.Context) (map[string]int, error) {
	if cached, err := s.cacheRepo.Get(ctx, statusCountsCacheKey); err == nil && cached != "" {
		counts := make(map[string]int)
		if err := json.Unmarshal([]byte(cached), &counts); err == nil {
			return counts, nil
		}
	}

	counts, err := s.equipmentRepo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(counts); err == nil {
		if err := s.cacheRepo.Set(ctx, statusCountsCacheKey, string(raw), s.countsTTL); err != nil {
			s.logger.Warn("status counts cache write failed", zap.Error(err))
		}
	}
	return counts, nil
}

// invalidateCounts drops the cached aggregate after any mutation. Best effort:
// a failed invalidation only delays the counts by the cache TTL.
func (s *EquipmentService) invalidateCounts(ctx context.Context) {
	if err := s.cacheRepo.Del(ctx, statusCountsCacheKey); err != nil {
		s.logger.Warn("status counts cache invalidation failed", zap.Error(err))
	}
}

func (s *EquipmentService) updater(ctx context.Context) string {
	if name, err := utils.GetUsernameFromCtx(ctx); err == nil {
		return name
	}
	return "Admin"
}

func auditRow(e *entities.Equipment, now time.Time, comment string) entities.EquipmentLog {
	return entities.EquipmentLog{
		CcIDFk:     e.CcmID,
		InputDate:  null.TimeFrom(now),
		Status:     e.Status,
		SubStatus:  e.SubStatus,
		UpdateBy:   e.UpdateBy,
		UpdateTime: null.TimeFrom(now),
		Comment:    comment,
	}
}

func (s *EquipmentService) Create(ctx context.Context, payload dto.CreateEquipmentDTO) (*entities.Equipment, error) {
	if !entities.IsAssignableStatus(payload.Status) {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "unknown equipment status: "+payload.Status, nil)
	}

	now := time.Now()
	e := entities.Equipment{
		CcmID:      payload.CcmID,
		Size:       payload.Size,
		BoxID:      payload.BoxID,
		UserName:   payload.UserName,
		StartTime:  payload.StartTime,
		Status:     payload.Status,
		SubStatus:  payload.SubStatus,
		UpdateBy:   s.updater(ctx),
		UpdateTime: null.TimeFrom(now),
		Comment:    payload.Comment,
		UpdCnt:     0,
	}

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.equipmentRepo.Create(ctx, tx, e)
		if err != nil {
			return err
		}
		e.ID = id
		return s.logRepo.Insert(ctx, tx, auditRow(&e, now, e.Comment))
	})
	if err != nil {
		if err == apperrors.ErrConflict {
			return nil, apperrors.NewHttpError(http.StatusConflict, "equipment id already exists: "+payload.CcmID, err)
		}
		s.logger.Error("equipment create failed", zap.String("ccm_id", payload.CcmID), zap.Error(err))
		return nil, err
	}

	s.invalidateCounts(ctx)
	s.logger.Info("equipment created", zap.String("ccm_id", e.CcmID), zap.String("by", e.UpdateBy))
	return &e, nil
}

func (s *EquipmentService) Update(ctx context.Context, ccmID string, payload dto.UpdateEquipmentDTO) (*entities.Equipment, error) {
	if !entities.IsAssignableStatus(payload.Status) {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "unknown equipment status: "+payload.Status, nil)
	}

	existing, err := s.equipmentRepo.FindByCcmID(ctx, nil, ccmID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	e := *existing
	e.Size = payload.Size
	e.BoxID = payload.BoxID
	e.UserName = payload.UserName
	e.StartTime = payload.StartTime
	e.Status = payload.Status
	e.SubStatus = payload.SubStatus
	e.Comment = payload.Comment
	e.UpdateBy = s.updater(ctx)
	e.UpdateTime = null.TimeFrom(now)

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.equipmentRepo.Update(ctx, tx, ccmID, e); err != nil {
			return err
		}
		return s.logRepo.Insert(ctx, tx, auditRow(&e, now, e.Comment))
	})
	if err != nil {
		s.logger.Error("equipment update failed", zap.String("ccm_id", ccmID), zap.Error(err))
		return nil, err
	}

	e.UpdCnt = existing.UpdCnt + 1
	s.invalidateCounts(ctx)
	return &e, nil
}

// BatchUpdate applies one sparse update set per item inside a single
// transaction; either every selected record moves or none does.
func (s *EquipmentService) BatchUpdate(ctx context.Context, items []dto.BatchUpdateItemDTO) (int, error) {
	if len(items) == 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "batch update requires at least one record", nil)
	}
	for _, item := range items {
		if item.Status != nil && !entities.IsAssignableStatus(*item.Status) {
			return 0, apperrors.NewHttpError(http.StatusBadRequest, "unknown equipment status: "+*item.Status, nil)
		}
	}

	updateBy := s.updater(ctx)
	now := time.Now()

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, item := range items {
			if err := s.equipmentRepo.ApplyBatchItem(ctx, tx, item, updateBy, now); err != nil {
				return err
			}
			updated, err := s.equipmentRepo.FindByCcmID(ctx, tx, item.CcmID)
			if err != nil {
				return err
			}
			if err := s.logRepo.Insert(ctx, tx, auditRow(updated, now, updated.Comment)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("batch update failed", zap.Int("items", len(items)), zap.Error(err))
		return 0, err
	}

	s.invalidateCounts(ctx)
	s.logger.Info("batch update applied", zap.Int("items", len(items)), zap.String("by", updateBy))
	return len(items), nil
}

// ForceDelete removes the row permanently. The terminal marker goes to the
// audit log first so the trail survives the record.
func (s *EquipmentService) ForceDelete(ctx context.Context, id uint64, updateBy string) error {
	existing, err := s.equipmentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if updateBy == "" {
		updateBy = s.updater(ctx)
	}

	now := time.Now()
	marker := entities.EquipmentLog{
		CcIDFk:     existing.CcmID,
		InputDate:  null.TimeFrom(now),
		Status:     entities.StatusForceDeleted,
		SubStatus:  existing.SubStatus,
		UpdateBy:   updateBy,
		UpdateTime: null.TimeFrom(now),
		Comment:    existing.Comment,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.logRepo.Insert(ctx, tx, marker); err != nil {
			return err
		}
		return s.equipmentRepo.Delete(ctx, tx, id)
	})
	if err != nil {
		s.logger.Error("force delete failed", zap.Uint64("id", id), zap.Error(err))
		return err
	}

	s.invalidateCounts(ctx)
	s.logger.Info("equipment force deleted", zap.String("ccm_id", existing.CcmID), zap.String("by", updateBy))
	return nil
}

func (s *EquipmentService) Logs(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error) {
	return s.logRepo.ListByCcmID(ctx, ccmID)
}

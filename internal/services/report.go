package services

import (
	"context"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
	"ccm-system/internal/repositories"
	apperrors "ccm-system/pkg/errors"
	"ccm-system/pkg/filestorage"
)

type ReportServiceInterface interface {
	List(ctx context.Context) ([]entities.Report, error)
	Upload(ctx context.Context, payload dto.UploadReportDTO, images []*multipart.FileHeader) (*entities.Report, error)
	UpdateProcessing(ctx context.Context, id uint64, payload dto.UpdateReportDTO) error
	Delete(ctx context.Context, id uint64) error
}

type ReportService struct {
	reportRepo  repositories.ReportRepositoryInterface
	fileStorage filestorage.FileStorageInterface
	logger      *zap.Logger
}

func NewReportService(
	reportRepo repositories.ReportRepositoryInterface,
	fileStorage filestorage.FileStorageInterface,
	logger *zap.Logger,
) ReportServiceInterface {
	return &ReportService{reportRepo: reportRepo, fileStorage: fileStorage, logger: logger}
}

func (s *ReportService) List(ctx context.Context) ([]entities.Report, error) {
	return s.reportRepo.List(ctx)
}

func (s *ReportService) Upload(ctx context.Context, payload dto.UploadReportDTO, images []*multipart.FileHeader) (*entities.Report, error) {
	if len(images) == 0 {
		return nil, apperrors.NewHttpError(http.StatusBadRequest, "at least one image is required", nil)
	}

	paths := make([]string, 0, len(images))
	for _, header := range images {
		src, err := header.Open()
		if err != nil {
			return nil, err
		}
		path, err := s.fileStorage.Save(src, header.Filename, "reports")
		src.Close()
		if err != nil {
			s.logger.Error("report image save failed", zap.String("file", header.Filename), zap.Error(err))
			return nil, err
		}
		paths = append(paths, path)
	}

	rep := entities.Report{
		CcmIDFk:    payload.CcmID,
		Reporter:   payload.ReporterName,
		IssueType:  payload.IssueType,
		IssueInfo:  payload.IssueDescription,
		ReportTime: null.TimeFrom(time.Now()),
		ImagePath:  entities.EncodeImagePaths(paths),
		Status:     entities.ReportPending,
	}

	id, err := s.reportRepo.Create(ctx, rep)
	if err != nil {
		return nil, err
	}
	rep.ID = id

	s.logger.Info("report filed",
		zap.String("ccm_id", rep.CcmIDFk),
		zap.String("reporter", rep.Reporter),
		zap.Int("images", len(paths)))
	return &rep, nil
}

func (s *ReportService) UpdateProcessing(ctx context.Context, id uint64, payload dto.UpdateReportDTO) error {
	if !entities.IsReportStatus(payload.Status) {
		return apperrors.NewHttpError(http.StatusBadRequest, "unknown report status: "+payload.Status, nil)
	}

	processTime := null.TimeFrom(time.Now())
	if payload.ProcessTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", payload.ProcessTime, time.Local); err == nil {
			processTime = null.TimeFrom(t)
		}
	}

	return s.reportRepo.UpdateProcessing(ctx, id,
		payload.Status,
		null.NewString(payload.Processer, payload.Processer != ""),
		null.NewString(payload.ProcessNotes, payload.ProcessNotes != ""),
		processTime,
	)
}

func (s *ReportService) Delete(ctx context.Context, id uint64) error {
	rep, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.reportRepo.Delete(ctx, id); err != nil {
		return err
	}

	// Stored images are orphaned once the row is gone; removal is best effort.
	for _, path := range rep.Images() {
		if err := s.fileStorage.Delete(path); err != nil {
			s.logger.Warn("report image cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

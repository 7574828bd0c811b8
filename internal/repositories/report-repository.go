package repositories

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ccm-system/internal/entities"
	apperrors "ccm-system/pkg/errors"
)

const reportColumns = "id, ccm_id_fk, reporter, issue_type, issue_info, report_time, image_path, status, processer, process_notes, process_time"

type ReportRepositoryInterface interface {
	List(ctx context.Context) ([]entities.Report, error)
	FindByID(ctx context.Context, id uint64) (*entities.Report, error)
	Create(ctx context.Context, r entities.Report) (uint64, error)
	UpdateProcessing(ctx context.Context, id uint64, status string, processer, processNotes null.String, processTime null.Time) error
	Delete(ctx context.Context, id uint64) error
}

type ReportRepository struct {
	storage *pgxpool.Pool
}

func NewReportRepository(storage *pgxpool.Pool) ReportRepositoryInterface {
	return &ReportRepository{storage: storage}
}

func (r *ReportRepository) List(ctx context.Context) ([]entities.Report, error) {
	query, args, err := psql.Select(reportColumns).From("cc_reports").OrderBy("report_time DESC NULLS LAST").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]entities.Report, 0)
	for rows.Next() {
		var rep entities.Report
		if err := rows.Scan(
			&rep.ID, &rep.CcmIDFk, &rep.Reporter, &rep.IssueType, &rep.IssueInfo,
			&rep.ReportTime, &rep.ImagePath, &rep.Status, &rep.Processer, &rep.ProcessNotes, &rep.ProcessTime,
		); err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *ReportRepository) FindByID(ctx context.Context, id uint64) (*entities.Report, error) {
	query, args, err := psql.Select(reportColumns).From("cc_reports").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}

	var rep entities.Report
	err = r.storage.QueryRow(ctx, query, args...).Scan(
		&rep.ID, &rep.CcmIDFk, &rep.Reporter, &rep.IssueType, &rep.IssueInfo,
		&rep.ReportTime, &rep.ImagePath, &rep.Status, &rep.Processer, &rep.ProcessNotes, &rep.ProcessTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &rep, nil
}

func (r *ReportRepository) Create(ctx context.Context, rep entities.Report) (uint64, error) {
	query, args, err := psql.Insert("cc_reports").
		Columns("ccm_id_fk", "reporter", "issue_type", "issue_info", "report_time", "image_path", "status").
		Values(rep.CcmIDFk, rep.Reporter, rep.IssueType, rep.IssueInfo, rep.ReportTime, rep.ImagePath, rep.Status).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *ReportRepository) UpdateProcessing(ctx context.Context, id uint64, status string, processer, processNotes null.String, processTime null.Time) error {
	query, args, err := psql.Update("cc_reports").
		Set("status", status).
		Set("processer", processer).
		Set("process_notes", processNotes).
		Set("process_time", processTime).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id uint64) error {
	query, args, err := psql.Delete("cc_reports").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

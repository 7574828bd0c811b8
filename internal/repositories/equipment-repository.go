package repositories

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
	apperrors "ccm-system/pkg/errors"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx; mutating repository
// methods take it explicitly so services can compose them in one transaction.
type Querier = querier

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const equipmentColumns = "id, ccm_id, cc_size, box_id, user_name, cc_starttime, cc_status, cc_substatus, update_by, update_time, comment, upd_cnt"

type EquipmentRepositoryInterface interface {
	List(ctx context.Context, status string) ([]entities.Equipment, error)
	FindByCcmID(ctx context.Context, q Querier, ccmID string) (*entities.Equipment, error)
	FindByID(ctx context.Context, id uint64) (*entities.Equipment, error)
	StatusCounts(ctx context.Context) (map[string]int, error)
	Create(ctx context.Context, q Querier, e entities.Equipment) (uint64, error)
	Update(ctx context.Context, q Querier, ccmID string, e entities.Equipment) error
	ApplyBatchItem(ctx context.Context, q Querier, item dto.BatchUpdateItemDTO, updateBy string, now time.Time) error
	Delete(ctx context.Context, q Querier, id uint64) error
}

type EquipmentRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentRepository(storage *pgxpool.Pool) EquipmentRepositoryInterface {
	return &EquipmentRepository{storage: storage}
}

func scanEquipment(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	err := row.Scan(
		&e.ID, &e.CcmID, &e.Size, &e.BoxID, &e.UserName, &e.StartTime,
		&e.Status, &e.SubStatus, &e.UpdateBy, &e.UpdateTime, &e.Comment, &e.UpdCnt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EquipmentRepository) List(ctx context.Context, status string) ([]entities.Equipment, error) {
	builder := psql.Select(equipmentColumns).From("cc_master").OrderBy("ccm_id ASC")
	if status != "" {
		builder = builder.Where(sq.Eq{"cc_status": status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]entities.Equipment, 0)
	for rows.Next() {
		var e entities.Equipment
		if err := rows.Scan(
			&e.ID, &e.CcmID, &e.Size, &e.BoxID, &e.UserName, &e.StartTime,
			&e.Status, &e.SubStatus, &e.UpdateBy, &e.UpdateTime, &e.Comment, &e.UpdCnt,
		); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *EquipmentRepository) FindByCcmID(ctx context.Context, q Querier, ccmID string) (*entities.Equipment, error) {
	if q == nil {
		q = r.storage
	}
	query, args, err := psql.Select(equipmentColumns).From("cc_master").Where(sq.Eq{"ccm_id": ccmID}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(q.QueryRow(ctx, query, args...))
}

func (r *EquipmentRepository) FindByID(ctx context.Context, id uint64) (*entities.Equipment, error) {
	query, args, err := psql.Select(equipmentColumns).From("cc_master").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	return scanEquipment(r.storage.QueryRow(ctx, query, args...))
}

func (r *EquipmentRepository) StatusCounts(ctx context.Context) (map[string]int, error) {
	query, args, err := psql.Select("cc_status", "COUNT(*)").From("cc_master").GroupBy("cc_status").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *EquipmentRepository) Create(ctx context.Context, q Querier, e entities.Equipment) (uint64, error) {
	if q == nil {
		q = r.storage
	}
	query, args, err := psql.Insert("cc_master").
		Columns("ccm_id", "cc_size", "box_id", "user_name", "cc_starttime", "cc_status", "cc_substatus", "update_by", "update_time", "comment", "upd_cnt").
		Values(e.CcmID, e.Size, e.BoxID, e.UserName, e.StartTime, e.Status, e.SubStatus, e.UpdateBy, e.UpdateTime, e.Comment, e.UpdCnt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, err
	}

	var id uint64
	if err := q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, apperrors.ErrConflict
		}
		return 0, err
	}
	return id, nil
}

func (r *EquipmentRepository) Update(ctx context.Context, q Querier, ccmID string, e entities.Equipment) error {
	if q == nil {
		q = r.storage
	}
	query, args, err := psql.Update("cc_master").
		Set("cc_size", e.Size).
		Set("box_id", e.BoxID).
		Set("user_name", e.UserName).
		Set("cc_starttime", e.StartTime).
		Set("cc_status", e.Status).
		Set("cc_substatus", e.SubStatus).
		Set("update_by", e.UpdateBy).
		Set("update_time", e.UpdateTime).
		Set("comment", e.Comment).
		Set("upd_cnt", sq.Expr("upd_cnt + 1")).
		Where(sq.Eq{"ccm_id": ccmID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ApplyBatchItem updates only the fields present in the item. Nil pointers are
// left untouched so a batch can clear a field to empty without clobbering the
// ones the operator never flagged.
func (r *EquipmentRepository) ApplyBatchItem(ctx context.Context, q Querier, item dto.BatchUpdateItemDTO, updateBy string, now time.Time) error {
	if q == nil {
		q = r.storage
	}
	builder := psql.Update("cc_master").
		Set("update_by", updateBy).
		Set("update_time", null.TimeFrom(now)).
		Set("upd_cnt", sq.Expr("upd_cnt + 1")).
		Where(sq.Eq{"ccm_id": item.CcmID})

	if item.Status != nil {
		builder = builder.Set("cc_status", *item.Status)
	}
	if item.SubStatus != nil {
		builder = builder.Set("cc_substatus", *item.SubStatus)
	}
	if item.Comment != nil {
		builder = builder.Set("comment", *item.Comment)
	}
	if item.StartTime != nil {
		if *item.StartTime == "" {
			builder = builder.Set("cc_starttime", nil)
		} else {
			t, err := time.ParseInLocation("2006-01-02 15:04:05", *item.StartTime, time.Local)
			if err != nil {
				return apperrors.ErrBadRequest
			}
			builder = builder.Set("cc_starttime", null.TimeFrom(t))
		}
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *EquipmentRepository) Delete(ctx context.Context, q Querier, id uint64) error {
	if q == nil {
		q = r.storage
	}
	query, args, err := psql.Delete("cc_master").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

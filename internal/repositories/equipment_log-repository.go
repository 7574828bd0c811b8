package repositories

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"ccm-system/internal/entities"
)

type EquipmentLogRepositoryInterface interface {
	ListByCcmID(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error)
	Insert(ctx context.Context, q Querier, log entities.EquipmentLog) error
}

type EquipmentLogRepository struct {
	storage *pgxpool.Pool
}

func NewEquipmentLogRepository(storage *pgxpool.Pool) EquipmentLogRepositoryInterface {
	return &EquipmentLogRepository{storage: storage}
}

func (r *EquipmentLogRepository) ListByCcmID(ctx context.Context, ccmID string) ([]entities.EquipmentLog, error) {
	query, args, err := psql.
		Select("ccl_id", "cc_id_fk", "input_date", "cc_status", "cc_substatus", "update_by", "update_time", "comment").
		From("cc_log").
		Where(sq.Eq{"cc_id_fk": ccmID}).
		OrderBy("update_time DESC NULLS LAST").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]entities.EquipmentLog, 0)
	for rows.Next() {
		var l entities.EquipmentLog
		if err := rows.Scan(&l.CclID, &l.CcIDFk, &l.InputDate, &l.Status, &l.SubStatus, &l.UpdateBy, &l.UpdateTime, &l.Comment); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// Insert appends one audit row. cc_log is append-only; there is no update or
// delete path on purpose.
func (r *EquipmentLogRepository) Insert(ctx context.Context, q Querier, log entities.EquipmentLog) error {
	if q == nil {
		q = r.storage
	}
	query, args, err := psql.Insert("cc_log").
		Columns("cc_id_fk", "input_date", "cc_status", "cc_substatus", "update_by", "update_time", "comment").
		Values(log.CcIDFk, log.InputDate, log.Status, log.SubStatus, log.UpdateBy, log.UpdateTime, log.Comment).
		ToSql()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, query, args...)
	return err
}

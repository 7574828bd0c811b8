package panel

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"ccm-system/internal/entities"
)

// ErrNothingToExport means the current filtered view has zero rows; the
// operator gets a warning instead of an empty workbook.
var ErrNothingToExport = errors.New("nothing to export")

const exportSheet = "器材列表"

// exportHeaders is the fixed column order of the exported sheet.
var exportHeaders = []string{
	"器材編號",
	"設備尺寸",
	"箱號",
	"使用者名稱",
	"使用開始時間",
	"狀態",
	"描述",
	"更新者",
	"更新時間",
	"備註",
	"更新次數",
}

// ExportXLSX renders the records into a spreadsheet, one row per record in
// the given order. The caller closes the returned file.
func ExportXLSX(records []entities.Equipment) (*excelize.File, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		f.Close()
		return nil, err
	}

	for i, rec := range records {
		row := []interface{}{
			rec.CcmID,
			rec.Size,
			rec.BoxID,
			rec.UserName,
			formatNullTime(rec.StartTime),
			rec.Status,
			rec.SubStatus,
			rec.UpdateBy,
			formatNullTime(rec.UpdateTime),
			rec.Comment,
			strconv.Itoa(rec.UpdCnt),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// ExportVisible exports exactly what the operator sees: the fetched records
// after the active search, ignoring pagination.
func (c *ListController) ExportVisible(w io.Writer) error {
	f, err := ExportXLSX(c.VisibleRecords())
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

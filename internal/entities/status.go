package entities

// Equipment status vocabulary. Values are stored and transported verbatim,
// matching the factory floor terminology.
const (
	StatusWashing       = "清洗"   // out for washing
	StatusInStock       = "在廠"   // on site
	StatusScrapped      = "報廢"   // terminal, rows become unselectable
	StatusMaintenance   = "維修"   // under repair
	StatusContamination = "特污處理" // special contamination handling

	// Soft delete is a status value; hard removal only ever appears in the log.
	StatusDeleted      = "已刪除"
	StatusForceDeleted = "強制刪除"
)

// EquipmentStatusOptions are the statuses assignable through the editors.
var EquipmentStatusOptions = []string{
	StatusWashing,
	StatusInStock,
	StatusScrapped,
	StatusMaintenance,
	StatusContamination,
}

// MaintenanceSubStatusOptions is the fixed repair-category list used for the
// sub-status field whenever status is 維修.
var MaintenanceSubStatusOptions = []string{
	"頭部修補",
	"前胸修補",
	"後背修補",
	"手部修補",
	"腳部修補",
	"換拉鍊",
	"換拉鍊頭",
}

// Report processing statuses.
const (
	ReportPending  = "待處理"
	ReportResolved = "已處理"
	ReportIgnored  = "已忽略"
)

var ReportStatusOptions = []string{ReportPending, ReportResolved, ReportIgnored}

// Issue types offered by the report form. Free text is still accepted.
var ReportIssueTypes = []string{"髒污/破損", "遺失", "功能異常", "其他"}

func IsAssignableStatus(s string) bool {
	for _, opt := range EquipmentStatusOptions {
		if s == opt {
			return true
		}
	}
	return s == StatusDeleted
}

func IsReportStatus(s string) bool {
	for _, opt := range ReportStatusOptions {
		if s == opt {
			return true
		}
	}
	return false
}

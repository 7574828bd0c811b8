package dto

// UploadReportDTO binds the multipart form fields of a new report. Images are
// read from the request separately.
type UploadReportDTO struct {
	ReporterName     string `form:"reporter_name" validate:"required,max=64"`
	CcmID            string `form:"ccm_id" validate:"required,max=64"`
	IssueType        string `form:"issue_type" validate:"required,max=64"`
	IssueDescription string `form:"issue_description"`
}

// UpdateReportDTO carries the processing fields an editor can change.
type UpdateReportDTO struct {
	Status       string `json:"status" validate:"required"`
	Processer    string `json:"processer"`
	ProcessNotes string `json:"process_notes"`
	ProcessTime  string `json:"process_time"`
}

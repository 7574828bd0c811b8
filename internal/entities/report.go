package entities

import (
	"encoding/json"

	"github.com/aarondl/null/v8"
)

// Report is an issue report filed against a piece of equipment. IMAGE_PATH is
// transported as a JSON-encoded string array inside a string field, which is
// what the panel historically expects.
type Report struct {
	ID           uint64      `json:"ID"`
	CcmIDFk      string      `json:"CCM_ID_FK"`
	Reporter     string      `json:"REPORTER"`
	IssueType    string      `json:"ISSUE_TYPE"`
	IssueInfo    string      `json:"ISSUE_INFO"`
	ReportTime   null.Time   `json:"REPORT_TIME"`
	ImagePath    string      `json:"IMAGE_PATH"`
	Status       string      `json:"STATUS"`
	Processer    null.String `json:"PROCESSER"`
	ProcessNotes null.String `json:"PROCESS_NOTES"`
	ProcessTime  null.Time   `json:"PROCESS_TIME"`
}

// Images decodes IMAGE_PATH. A bare string that is not valid JSON is treated
// as a single path.
func (r *Report) Images() []string {
	if r.ImagePath == "" {
		return nil
	}
	var paths []string
	if err := json.Unmarshal([]byte(r.ImagePath), &paths); err != nil {
		return []string{r.ImagePath}
	}
	return paths
}

func EncodeImagePaths(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return ""
	}
	return string(b)
}

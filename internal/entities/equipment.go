package entities

import (
	"github.com/aarondl/null/v8"
)

// Equipment is a cc_master row. JSON tags are the wire contract shared with
// the admin panel; column naming follows the legacy schema.
type Equipment struct {
	ID         uint64    `json:"ID"`
	CcmID      string    `json:"CCM_ID"`
	Size       string    `json:"CC_SIZE"`
	BoxID      string    `json:"BOX_ID"`
	UserName   string    `json:"USER_NAME"`
	StartTime  null.Time `json:"CC_STARTTIME"`
	Status     string    `json:"CC_STATUS"`
	SubStatus  string    `json:"CC_SUBSTATUS"`
	UpdateBy   string    `json:"UPDATE_BY"`
	UpdateTime null.Time `json:"UPDATE_TIME"`
	Comment    string    `json:"COMMENT"`
	UpdCnt     int       `json:"UPD_CNT"`
}

// EquipmentLog is an append-only cc_log row. Written by the server on every
// mutation, never updated or deleted through the API.
type EquipmentLog struct {
	CclID      uint64    `json:"CCL_ID"`
	CcIDFk     string    `json:"CC_ID_FK"`
	InputDate  null.Time `json:"INPUT_DATE"`
	Status     string    `json:"CC_STATUS"`
	SubStatus  string    `json:"CC_SUBSTATUS"`
	UpdateBy   string    `json:"UPDATE_BY"`
	UpdateTime null.Time `json:"UPDATE_TIME"`
	Comment    string    `json:"COMMENT"`
}

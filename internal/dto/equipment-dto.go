package dto

import "github.com/aarondl/null/v8"

// CreateEquipmentDTO mirrors the editor form. Field names are the legacy wire
// contract.
type CreateEquipmentDTO struct {
	CcmID     string    `json:"CCM_ID" validate:"required,max=64"`
	Size      string    `json:"CC_SIZE" validate:"max=32"`
	BoxID     string    `json:"BOX_ID" validate:"max=64"`
	UserName  string    `json:"USER_NAME" validate:"max=64"`
	StartTime null.Time `json:"CC_STARTTIME"`
	Status    string    `json:"CC_STATUS" validate:"required"`
	SubStatus string    `json:"CC_SUBSTATUS"`
	Comment   string    `json:"COMMENT"`
}

// UpdateEquipmentDTO is a full replace of the editable fields, keyed by the
// CCM_ID in the path. CCM_ID itself is immutable after creation.
type UpdateEquipmentDTO struct {
	Size      string    `json:"CC_SIZE" validate:"max=32"`
	BoxID     string    `json:"BOX_ID" validate:"max=64"`
	UserName  string    `json:"USER_NAME" validate:"max=64"`
	StartTime null.Time `json:"CC_STARTTIME"`
	Status    string    `json:"CC_STATUS" validate:"required"`
	SubStatus string    `json:"CC_SUBSTATUS"`
	Comment   string    `json:"COMMENT"`
}

// BatchUpdateItemDTO is one element of the batch payload. Nil pointers mean
// "leave unchanged"; the panel only serializes fields the operator flagged,
// which is how "unchanged" stays distinguishable from "clear to empty".
type BatchUpdateItemDTO struct {
	CcmID     string  `json:"CCM_ID" validate:"required"`
	Status    *string `json:"CC_STATUS,omitempty"`
	SubStatus *string `json:"CC_SUBSTATUS,omitempty"`
	Comment   *string `json:"COMMENT,omitempty"`
	StartTime *string `json:"CC_STARTTIME,omitempty"`
}

type ForceDeleteDTO struct {
	UpdateBy string `json:"updateBy"`
}

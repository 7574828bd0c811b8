package panel

import (
	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
)

// BatchField identifies one column the batch editor can touch.
type BatchField string

const (
	FieldStatus    BatchField = "CC_STATUS"
	FieldSubStatus BatchField = "CC_SUBSTATUS"
	FieldComment   BatchField = "COMMENT"
	FieldStartTime BatchField = "CC_STARTTIME"
)

var batchFields = []BatchField{FieldStatus, FieldSubStatus, FieldComment, FieldStartTime}

// BatchEditor models the multi-row edit form. Each field carries an include
// flag next to its value; only flagged fields make it into the payload, and a
// flagged field with an empty value means "clear on every selected row".
type BatchEditor struct {
	include map[BatchField]bool
	values  map[BatchField]string
}

func NewBatchEditor() *BatchEditor {
	return &BatchEditor{
		include: make(map[BatchField]bool),
		values:  make(map[BatchField]string),
	}
}

// SetInclude toggles a field in or out of the batch. Unchecking a field drops
// its pending value, so re-checking starts from empty. Unchecking status also
// unchecks sub-status: a sub-status without its status is meaningless.
func (b *BatchEditor) SetInclude(field BatchField, on bool) {
	b.include[field] = on
	if on {
		return
	}
	delete(b.values, field)
	if field == FieldStatus {
		b.include[FieldSubStatus] = false
		delete(b.values, FieldSubStatus)
	}
}

// SetValue records the pending value for an included field. Changing status
// away from 維修 clears a sub-status that no longer fits the constrained list.
func (b *BatchEditor) SetValue(field BatchField, value string) {
	if !b.include[field] {
		return
	}
	b.values[field] = value
	if field == FieldStatus && value != entities.StatusMaintenance {
		if sub, ok := b.values[FieldSubStatus]; ok && isMaintenanceSubStatus(sub) {
			delete(b.values, FieldSubStatus)
		}
	}
}

func (b *BatchEditor) Included(field BatchField) bool { return b.include[field] }

func (b *BatchEditor) Value(field BatchField) string { return b.values[field] }

// SubStatusConstrained reports whether the sub-status input must be a pick
// from the repair-category list instead of free text.
func (b *BatchEditor) SubStatusConstrained() bool {
	return b.include[FieldStatus] && b.values[FieldStatus] == entities.StatusMaintenance
}

// SubStatusChoices returns the allowed sub-status values, or nil when the
// field is free text.
func (b *BatchEditor) SubStatusChoices() []string {
	if !b.SubStatusConstrained() {
		return nil
	}
	return entities.MaintenanceSubStatusOptions
}

// HasUpdates reports whether at least one field is flagged for the batch.
func (b *BatchEditor) HasUpdates() bool {
	for _, f := range batchFields {
		if b.include[f] {
			return true
		}
	}
	return false
}

// Reset returns the editor to its pristine state, used when the modal closes.
func (b *BatchEditor) Reset() {
	b.include = make(map[BatchField]bool)
	b.values = make(map[BatchField]string)
}

// item builds the sparse payload element for one selected row. Unflagged
// fields stay nil and are omitted from the JSON entirely.
func (b *BatchEditor) item(ccmID string) dto.BatchUpdateItemDTO {
	it := dto.BatchUpdateItemDTO{CcmID: ccmID}
	if b.include[FieldStatus] {
		v := b.values[FieldStatus]
		it.Status = &v
	}
	if b.include[FieldSubStatus] {
		v := b.values[FieldSubStatus]
		it.SubStatus = &v
	}
	if b.include[FieldComment] {
		v := b.values[FieldComment]
		it.Comment = &v
	}
	if b.include[FieldStartTime] {
		v := b.values[FieldStartTime]
		it.StartTime = &v
	}
	return it
}

func isMaintenanceSubStatus(s string) bool {
	for _, opt := range entities.MaintenanceSubStatusOptions {
		if s == opt {
			return true
		}
	}
	return false
}

package panel

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"ccm-system/internal/dto"
	"ccm-system/internal/entities"
)

// wireTimeLayout is the timestamp format shared across the editors, the
// exported sheet and the search projection.
const wireTimeLayout = "2006-01-02 15:04:05"

var (
	// ErrEmptySelection means a batch or deletion was requested with no rows
	// selected. Surfaced to the operator as a warning, never sent to the server.
	ErrEmptySelection = errors.New("no rows selected")

	// ErrNoFieldsMarked means the batch editor was submitted without a single
	// field flagged for update.
	ErrNoFieldsMarked = errors.New("no fields marked for update")

	// ErrRowNotSelectable is returned when selecting a scrapped row.
	ErrRowNotSelectable = errors.New("row is not selectable")

	// ErrRowNotFound is returned when an operation names a record that is not
	// in the current result set.
	ErrRowNotFound = errors.New("record not in current list")
)

// ListController holds the equipment screen state: the fetched records, the
// active status filter, the search term, pagination and the row selection.
// Everything visible is a pure projection over records; nothing derived is
// stored back.
type ListController struct {
	mu      sync.Mutex
	client  *Client
	session *Session
	logger  *zap.Logger

	records      []entities.Equipment
	statusCounts map[string]int

	filterStatus string
	searchTerm   string
	page         int
	pageSize     int

	selected map[string]struct{}

	editing       *entities.Equipment
	editorOpen    bool
	pendingDelete *entities.Equipment

	// Generation counters tag in-flight fetches. A response whose tag no
	// longer matches the current generation is a stale answer to a request
	// the operator has since superseded, and is discarded on arrival.
	listGen   uint64
	countsGen uint64
}

func NewListController(client *Client, session *Session, logger *zap.Logger) *ListController {
	return &ListController{
		client:   client,
		session:  session,
		logger:   logger,
		page:     1,
		pageSize: 10,
		selected: make(map[string]struct{}),
	}
}

// FetchRecords reloads the list for the active status filter. Unauthenticated
// sessions get an empty list and no network traffic. A fetch error clears the
// current records rather than leaving a stale view on screen.
func (c *ListController) FetchRecords(ctx context.Context) error {
	if !c.session.Authenticated() {
		c.mu.Lock()
		c.records = nil
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.listGen++
	gen := c.listGen
	status := c.filterStatus
	c.mu.Unlock()

	records, err := c.client.FetchEquipment(ctx, status)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.listGen {
		c.logger.Debug("discarding stale equipment response", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		c.records = nil
		return err
	}
	c.records = records
	return nil
}

// FetchStatusCounts reloads the per-status counters shown on the filter cards.
func (c *ListController) FetchStatusCounts(ctx context.Context) error {
	if !c.session.Authenticated() {
		return nil
	}

	c.mu.Lock()
	c.countsGen++
	gen := c.countsGen
	c.mu.Unlock()

	counts, err := c.client.FetchStatusCounts(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.countsGen {
		return nil
	}
	if err != nil {
		return err
	}
	c.statusCounts = counts
	return nil
}

// Refresh reloads records and counters together, the standard post-mutation
// step.
func (c *ListController) Refresh(ctx context.Context) error {
	if err := c.FetchRecords(ctx); err != nil {
		return err
	}
	return c.FetchStatusCounts(ctx)
}

// ApplyStatusFilter toggles the server-side status filter. Clicking the
// already-active status clears it back to the unfiltered list. Either way the
// view returns to page one and the list is refetched.
func (c *ListController) ApplyStatusFilter(ctx context.Context, status string) error {
	c.mu.Lock()
	if c.filterStatus == status {
		c.filterStatus = ""
	} else {
		c.filterStatus = status
	}
	c.page = 1
	c.mu.Unlock()
	return c.FetchRecords(ctx)
}

func (c *ListController) FilterStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filterStatus
}

func (c *ListController) StatusCounts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.statusCounts))
	for k, v := range c.statusCounts {
		out[k] = v
	}
	return out
}

// SetSearchTerm updates the client-side search and jumps back to page one.
// Matching is case-insensitive over every field of the record.
func (c *ListController) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = strings.ToLower(strings.TrimSpace(term))
	c.page = 1
}

func (c *ListController) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *ListController) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	c.page = page
}

func (c *ListController) SetPageSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if size < 1 {
		size = 1
	}
	c.pageSize = size
	c.page = 1
}

// VisibleRecords projects the fetched records through the status filter and
// the search term. It is a pure function of the stored state; callers get a
// fresh slice every time. The status predicate is applied here as well as on
// the server, so the projection holds no matter where the records came from.
func (c *ListController) VisibleRecords() []entities.Equipment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filterRecords(c.records, c.filterStatus, c.searchTerm)
}

// PageRecords returns the current page slice of the visible set plus the
// total visible count for the pager.
func (c *ListController) PageRecords() ([]entities.Equipment, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := filterRecords(c.records, c.filterStatus, c.searchTerm)

	total := len(visible)
	start := (c.page - 1) * c.pageSize
	if start >= total {
		return nil, total
	}
	end := start + c.pageSize
	if end > total {
		end = total
	}
	return visible[start:end], total
}

func filterRecords(records []entities.Equipment, status, term string) []entities.Equipment {
	out := make([]entities.Equipment, 0, len(records))
	for _, rec := range records {
		if status != "" && rec.Status != status {
			continue
		}
		if term != "" && !recordMatches(rec, term) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// recordMatches checks the lowercased term against every field of the record
// rendered as text, timestamps and counters included.
func recordMatches(rec entities.Equipment, term string) bool {
	fields := []string{
		strconv.FormatUint(rec.ID, 10),
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
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func formatNullTime(t null.Time) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(wireTimeLayout)
}

// ToggleSelect adds or removes a row from the selection. Scrapped rows are
// never selectable.
func (c *ListController) ToggleSelect(ccmID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rec, ok := c.findLocked(ccmID)
	if !ok {
		return ErrRowNotFound
	}
	if rec.Status == entities.StatusScrapped {
		return ErrRowNotSelectable
	}
	if _, on := c.selected[ccmID]; on {
		delete(c.selected, ccmID)
	} else {
		c.selected[ccmID] = struct{}{}
	}
	return nil
}

func (c *ListController) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[string]struct{})
}

func (c *ListController) Selected(ccmID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, on := c.selected[ccmID]
	return on
}

// SelectedIDs returns the selection in stable order.
func (c *ListController) SelectedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedIDsLocked()
}

func (c *ListController) selectedIDsLocked() []string {
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *ListController) findLocked(ccmID string) (entities.Equipment, bool) {
	for _, rec := range c.records {
		if rec.CcmID == ccmID {
			return rec, true
		}
	}
	return entities.Equipment{}, false
}

// BeginCreate opens the editor with no backing record, so saving will create.
func (c *ListController) BeginCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.editorOpen = true
}

// BeginEdit opens the editor over an existing row; saving will update it.
func (c *ListController) BeginEdit(ccmID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.findLocked(ccmID)
	if !ok {
		return ErrRowNotFound
	}
	c.editing = &rec
	c.editorOpen = true
	return nil
}

func (c *ListController) CloseEditor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.editorOpen = false
}

func (c *ListController) EditorOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editorOpen
}

// Editing returns the record under edit, or nil in create mode.
func (c *ListController) Editing() *entities.Equipment {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return nil
	}
	rec := *c.editing
	return &rec
}

// EditorForm is the editor's field set, shared by create and edit mode.
type EditorForm struct {
	CcmID     string
	Size      string
	BoxID     string
	UserName  string
	StartTime null.Time
	Status    string
	SubStatus string
	Comment   string
}

// SaveEditor dispatches on how the editor was opened: no backing record means
// create, a backing record means update keyed by its original CCM_ID. On
// success the editor closes and the list is refreshed.
func (c *ListController) SaveEditor(ctx context.Context, form EditorForm) error {
	c.mu.Lock()
	editing := c.editing
	c.mu.Unlock()

	var err error
	if editing == nil {
		err = c.client.CreateEquipment(ctx, dto.CreateEquipmentDTO{
			CcmID:     form.CcmID,
			Size:      form.Size,
			BoxID:     form.BoxID,
			UserName:  form.UserName,
			StartTime: form.StartTime,
			Status:    form.Status,
			SubStatus: form.SubStatus,
			Comment:   form.Comment,
		})
	} else {
		err = c.client.UpdateEquipment(ctx, editing.CcmID, dto.UpdateEquipmentDTO{
			Size:      form.Size,
			BoxID:     form.BoxID,
			UserName:  form.UserName,
			StartTime: form.StartTime,
			Status:    form.Status,
			SubStatus: form.SubStatus,
			Comment:   form.Comment,
		})
	}
	if err != nil {
		return err
	}

	c.CloseEditor()
	c.ClearSelection()
	return c.Refresh(ctx)
}

// RequestForceDelete stages a hard delete for confirmation. Nothing is sent
// until ConfirmForceDelete.
func (c *ListController) RequestForceDelete(ccmID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.findLocked(ccmID)
	if !ok {
		return ErrRowNotFound
	}
	c.pendingDelete = &rec
	return nil
}

func (c *ListController) CancelForceDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingDelete = nil
}

// PendingDelete returns the staged record, or nil when no delete is pending.
func (c *ListController) PendingDelete() *entities.Equipment {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pendingDelete == nil {
		return nil
	}
	rec := *c.pendingDelete
	return &rec
}

// ConfirmForceDelete executes the staged delete and refreshes the list.
func (c *ListController) ConfirmForceDelete(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pendingDelete
	username := c.session.Username()
	c.mu.Unlock()

	if pending == nil {
		return ErrRowNotFound
	}
	if err := c.client.ForceDeleteEquipment(ctx, pending.ID, username); err != nil {
		return err
	}

	c.mu.Lock()
	c.pendingDelete = nil
	delete(c.selected, pending.CcmID)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// BeginBatch hands out a fresh batch editor for the current selection. An
// empty selection is rejected before any editor opens.
func (c *ListController) BeginBatch() (*BatchEditor, error) {
	if len(c.SelectedIDs()) == 0 {
		return nil, ErrEmptySelection
	}
	return NewBatchEditor(), nil
}

// SubmitBatch builds one payload item per selected row from the editor's
// flagged fields and sends them in a single request. An empty selection or an
// editor with nothing flagged is rejected locally. On success the selection
// and the editor reset and the list is refreshed.
func (c *ListController) SubmitBatch(ctx context.Context, editor *BatchEditor) error {
	c.mu.Lock()
	ids := c.selectedIDsLocked()
	c.mu.Unlock()

	if len(ids) == 0 {
		return ErrEmptySelection
	}
	if !editor.HasUpdates() {
		return ErrNoFieldsMarked
	}

	items := make([]dto.BatchUpdateItemDTO, 0, len(ids))
	for _, id := range ids {
		items = append(items, editor.item(id))
	}
	if err := c.client.BatchUpdateEquipment(ctx, items); err != nil {
		return err
	}

	editor.Reset()
	c.ClearSelection()
	return c.Refresh(ctx)
}

package panel

import (
	"context"
	"sort"
	"sync"

	"ccm-system/internal/entities"
)

// LogViewer drives the per-record history modal. Entries live only while the
// modal is open; closing it drops them so the next open never flashes the
// previous record's history.
type LogViewer struct {
	mu      sync.Mutex
	client  *Client
	ccmID   string
	entries []entities.EquipmentLog
	open    bool
}

func NewLogViewer(client *Client) *LogViewer {
	return &LogViewer{client: client}
}

// Open fetches the history for one record and shows it newest first.
func (v *LogViewer) Open(ctx context.Context, ccmID string) error {
	entries, err := v.client.FetchLogs(ctx, ccmID)
	if err != nil {
		return err
	}
	SortLogsNewestFirst(entries)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.ccmID = ccmID
	v.entries = entries
	v.open = true
	return nil
}

// Close clears the viewer state.
func (v *LogViewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ccmID = ""
	v.entries = nil
	v.open = false
}

func (v *LogViewer) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.open
}

func (v *LogViewer) CcmID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ccmID
}

func (v *LogViewer) Entries() []entities.EquipmentLog {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]entities.EquipmentLog, len(v.entries))
	copy(out, v.entries)
	return out
}

// SortLogsNewestFirst orders entries by update time descending. Entries with
// no update time sort after every dated entry, keeping their relative order.
func SortLogsNewestFirst(entries []entities.EquipmentLog) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].UpdateTime, entries[j].UpdateTime
		switch {
		case a.Valid && b.Valid:
			return a.Time.After(b.Time)
		case a.Valid:
			return true
		default:
			return false
		}
	})
}

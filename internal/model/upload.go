package model

import "time"

// UploadMode says how an upload was applied to the stored dataset.
type UploadMode string

const (
	UploadModeReplace UploadMode = "replace"
	UploadModeMerge   UploadMode = "merge"
)

// UploadLog is the audit record of one CSV ingest.
type UploadLog struct {
	ID              string     `json:"id"`
	FileName        string     `json:"file_name"`
	Mode            UploadMode `json:"mode"`
	RowsTotal       int        `json:"rows_total"`
	RowsProcessed   int        `json:"rows_processed"`
	RowsSkipped     int        `json:"rows_skipped"`
	NewOrders       int        `json:"new_orders"`
	DuplicateOrders int        `json:"duplicate_orders"`
	CreatedAt       time.Time  `json:"created_at"`
}

package models

// QueueEntry is the pending batch of uploaded file names for one folder.
// Timestamps are Unix seconds.
type QueueEntry struct {
	Key         string   `json:"-"`
	Folder      string   `json:"folder"`
	Files       []string `json:"files"`
	FirstUpload int64    `json:"firstUpload"`
	LastUpload  int64    `json:"lastUpload"`
}

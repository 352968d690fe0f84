package packets

import "github.com/Nixie-Tech-LLC/sehri/internal/schedulecsv"

// ScheduleResponse mirrors model.Schedule but flattens times to RFC3339
type ScheduleResponse struct {
	ID        int    `json:"id"`
	Date      string `json:"date"`
	Location  string `json:"location"`
	Sehri     string `json:"sehri"`
	Iftar     string `json:"iftar"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type FetchStartedResponse struct {
	JobID     string `json:"jobId"`
	StatusURL string `json:"statusUrl"`
	StreamURL string `json:"streamUrl"`
}

type UploadResponse struct {
	ID         int                    `json:"id"`
	Filename   string                 `json:"filename"`
	StoredPath string                 `json:"stored_path"`
	Imported   int                    `json:"imported"`
	Rejected   []schedulecsv.RowError `json:"rejected"`
}

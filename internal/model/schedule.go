package model

import "time"

// Schedule is a persisted PrayerTimeEntry.
type Schedule struct {
	ID        int       `db:"id" json:"id"`
	Date      string    `db:"date" json:"date"`
	Sehri     string    `db:"sehri" json:"sehri"`
	Iftar     string    `db:"iftar" json:"iftar"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (s Schedule) Entry() PrayerTimeEntry {
	return PrayerTimeEntry{Date: s.Date, Sehri: s.Sehri, Iftar: s.Iftar, Location: s.Location}
}

type UploadLog struct {
	ID           int       `db:"id" json:"id"`
	Filename     string    `db:"filename" json:"filename"`
	StoredPath   string    `db:"stored_path" json:"stored_path"`
	RowsImported int       `db:"rows_imported" json:"rows_imported"`
	RowsRejected int       `db:"rows_rejected" json:"rows_rejected"`
	UploadedBy   int       `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Hadith struct {
	ID        int       `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

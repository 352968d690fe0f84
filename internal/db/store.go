// exposes a Store interface that is passed to API calls w/ param requirements
package db

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Nixie-Tech-LLC/sehri/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("already exists")
)

// ScheduleFilter narrows ListSchedules. Empty fields are ignored; From and To
// are inclusive ISO dates.
type ScheduleFilter struct {
	From     string
	To       string
	Location string
	Limit    int
	Offset   int
}

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string, isAdmin bool) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error
	CountUsers() (int, error)

	// schedule functions
	UpsertSchedules(ctx context.Context, entries []model.PrayerTimeEntry) (int, error)
	ListSchedules(ctx context.Context, filter ScheduleFilter) ([]model.Schedule, error)
	GetSchedule(ctx context.Context, id int) (*model.Schedule, error)
	CreateSchedule(ctx context.Context, entry model.PrayerTimeEntry) (*model.Schedule, error)
	UpdateSchedule(ctx context.Context, id int, entry model.PrayerTimeEntry) (*model.Schedule, error)
	DeleteSchedule(ctx context.Context, id int) error

	// upload functions
	CreateUploadLog(ctx context.Context, upload model.UploadLog) (*model.UploadLog, error)
	ListUploadLogs(ctx context.Context, limit int) ([]model.UploadLog, error)

	// hadith functions
	CreateHadith(ctx context.Context, text, source string) (*model.Hadith, error)
	ListHadiths(ctx context.Context) ([]model.Hadith, error)
	RandomHadith(ctx context.Context) (*model.Hadith, error)
	DeleteHadith(ctx context.Context, id int) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
// required so linter doesn't complain
var _ Store = (*pgStore)(nil)

func NewStore(conn *sqlx.DB) Store {
	if conn == nil {
		conn = DB
	}
	return &pgStore{db: conn}
}

// uniqueViolation maps Postgres unique_violation to ErrDuplicate.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

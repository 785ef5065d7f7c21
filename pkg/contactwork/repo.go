package contactwork

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kalendo/kalendo/internal/utils"
	log "github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("contact work entry not found")

type Repository interface {
	ListEntries(ctx context.Context) ([]Entry, error)
	GetEntry(ctx context.Context, id string) (*Entry, error)
	StoreEntry(ctx context.Context, entry Entry) (Entry, error)
	UpdateEntry(ctx context.Context, entry Entry) (Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	MarkOccurrenceDeleted(ctx context.Context, id string, date time.Time) error
}

type RepositoryImpl struct {
	db    *sql.DB
	clock utils.Clock
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db, clock: utils.SystemClock{}}
}

const entryColumns = `id, person, start_time, end_time, location, organization, is_recurring,
       frequency, duration, custom_duration, custom_duration_unit, description, created_at, updated_at`

func (r *RepositoryImpl) ListEntries(ctx context.Context) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM contact_work_entry ORDER BY start_time"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query contact work entries: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, 10)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read contact work entries: %w", err)
	}

	if err := r.attachDeletedOccurrences(ctx, entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *RepositoryImpl) GetEntry(ctx context.Context, id string) (*Entry, error) {
	query := "SELECT " + entryColumns + " FROM contact_work_entry WHERE id = $1"

	row := r.db.QueryRowContext(ctx, query, id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		err := fmt.Errorf("could not query contact work entry: %w", err)
		log.Error(err)
		return nil, err
	}

	entries := []Entry{entry}
	if err := r.attachDeletedOccurrences(ctx, entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// StoreEntry persists a new entry. The id and audit timestamps are assigned
// here, not by the caller.
func (r *RepositoryImpl) StoreEntry(ctx context.Context, entry Entry) (Entry, error) {
	query := `INSERT INTO contact_work_entry (` + entryColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	entry.Id = uuid.New().String()
	now := r.clock.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	frequency, duration, customDuration, customUnit := patternColumns(entry.RecurringPattern)

	_, err := r.db.ExecContext(ctx, query,
		entry.Id, entry.Person, entry.StartTime.UnixMilli(), entry.EndTime.UnixMilli(),
		entry.Location, string(entry.Organization), boolToInt(entry.IsRecurring),
		frequency, duration, customDuration, customUnit,
		entry.Description, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		err := fmt.Errorf("could not store contact work entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}

	return entry, nil
}

func (r *RepositoryImpl) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	query := `UPDATE contact_work_entry
	          SET person = $1, start_time = $2, end_time = $3, location = $4, organization = $5,
	              is_recurring = $6, frequency = $7, duration = $8, custom_duration = $9,
	              custom_duration_unit = $10, description = $11, updated_at = $12
	          WHERE id = $13`

	entry.UpdatedAt = r.clock.Now()
	frequency, duration, customDuration, customUnit := patternColumns(entry.RecurringPattern)

	result, err := r.db.ExecContext(ctx, query,
		entry.Person, entry.StartTime.UnixMilli(), entry.EndTime.UnixMilli(),
		entry.Location, string(entry.Organization), boolToInt(entry.IsRecurring),
		frequency, duration, customDuration, customUnit,
		entry.Description, entry.UpdatedAt.UnixMilli(), entry.Id)
	if err != nil {
		err := fmt.Errorf("could not update contact work entry: %w", err)
		log.Error(err)
		return Entry{}, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Entry{}, fmt.Errorf("could not read update result: %w", err)
	}
	if affected == 0 {
		return Entry{}, ErrEntryNotFound
	}

	return entry, nil
}

func (r *RepositoryImpl) DeleteEntry(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM contact_work_entry WHERE id = $1", id)
	if err != nil {
		err := fmt.Errorf("could not delete contact work entry: %w", err)
		log.Error(err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read delete result: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// MarkOccurrenceDeleted records a single removed occurrence of a recurring
// entry. The marker is stored as a day-granularity date key, so later
// comparisons never depend on the time of day the deletion was requested at.
// Marking the same date twice is a no-op.
func (r *RepositoryImpl) MarkOccurrenceDeleted(ctx context.Context, id string, date time.Time) error {
	var found string
	err := r.db.QueryRowContext(ctx, "SELECT id FROM contact_work_entry WHERE id = $1", id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEntryNotFound
		}
		err := fmt.Errorf("could not query contact work entry: %w", err)
		log.Error(err)
		return err
	}

	query := `INSERT INTO contact_work_deleted_occurrence (entry_id, occurrence_date)
	          VALUES ($1, $2) ON CONFLICT (entry_id, occurrence_date) DO NOTHING`
	_, err = r.db.ExecContext(ctx, query, id, date.Format(dateKeyLayout))
	if err != nil {
		err := fmt.Errorf("could not mark occurrence deleted: %w", err)
		log.Error(err)
		return err
	}

	_, err = r.db.ExecContext(ctx, "UPDATE contact_work_entry SET updated_at = $1 WHERE id = $2",
		r.clock.Now().UnixMilli(), id)
	if err != nil {
		err := fmt.Errorf("could not refresh entry timestamp: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) attachDeletedOccurrences(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows, err := r.db.QueryContext(ctx, "SELECT entry_id, occurrence_date FROM contact_work_deleted_occurrence")
	if err != nil {
		err := fmt.Errorf("could not query deleted occurrences: %w", err)
		log.Error(err)
		return err
	}
	defer rows.Close()

	byEntry := make(map[string][]time.Time)
	for rows.Next() {
		var entryId, dateValue string
		if err := rows.Scan(&entryId, &dateValue); err != nil {
			return fmt.Errorf("could not read deleted occurrence: %w", err)
		}
		date, err := time.ParseInLocation(dateKeyLayout, dateValue, time.Local)
		if err != nil {
			return fmt.Errorf("malformed occurrence date %q: %w", dateValue, err)
		}
		byEntry[entryId] = append(byEntry[entryId], date)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("could not read deleted occurrences: %w", err)
	}

	for i := range entries {
		entries[i].DeletedOccurrences = byEntry[entries[i].Id]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var entry Entry
	var startTime, endTime, createdAt, updatedAt, isRecurring int64
	var frequency, duration, customUnit sql.NullString
	var customDuration sql.NullInt64
	var organization string

	err := row.Scan(&entry.Id, &entry.Person, &startTime, &endTime, &entry.Location,
		&organization, &isRecurring,
		&frequency, &duration, &customDuration, &customUnit,
		&entry.Description, &createdAt, &updatedAt)
	if err != nil {
		return Entry{}, err
	}

	entry.StartTime = time.UnixMilli(startTime)
	entry.EndTime = time.UnixMilli(endTime)
	entry.IsRecurring = isRecurring != 0
	entry.Organization = Organization(organization)
	entry.CreatedAt = time.UnixMilli(createdAt)
	entry.UpdatedAt = time.UnixMilli(updatedAt)

	if entry.IsRecurring && frequency.Valid && duration.Valid {
		entry.RecurringPattern = &RecurringPattern{
			Frequency:          Frequency(frequency.String),
			DayOfWeek:          entry.StartTime.Weekday(),
			DayOfMonth:         entry.StartTime.Day(),
			Duration:           Duration(duration.String),
			CustomDuration:     int(customDuration.Int64),
			CustomDurationUnit: DurationUnit(customUnit.String),
		}
	}

	return entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func patternColumns(pattern *RecurringPattern) (frequency, duration sql.NullString, customDuration sql.NullInt64, customUnit sql.NullString) {
	if pattern == nil {
		return
	}
	frequency = sql.NullString{String: string(pattern.Frequency), Valid: true}
	duration = sql.NullString{String: string(pattern.Duration), Valid: true}
	if pattern.Duration == DurationCustom {
		customDuration = sql.NullInt64{Int64: int64(pattern.CustomDuration), Valid: true}
		customUnit = sql.NullString{String: string(pattern.CustomDurationUnit), Valid: true}
	}
	return
}

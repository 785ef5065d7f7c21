package contactwork

import (
	"context"
	"fmt"
	"time"
)

type StubRepository struct {
	Entries []Entry
	nextId  int
}

func (s *StubRepository) ListEntries(ctx context.Context) ([]Entry, error) {
	return append([]Entry(nil), s.Entries...), nil
}

func (s *StubRepository) GetEntry(ctx context.Context, id string) (*Entry, error) {
	for i := range s.Entries {
		if s.Entries[i].Id == id {
			entry := s.Entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (s *StubRepository) StoreEntry(ctx context.Context, entry Entry) (Entry, error) {
	s.nextId++
	entry.Id = fmt.Sprintf("entry-%d", s.nextId)
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	s.Entries = append(s.Entries, entry)
	return entry, nil
}

func (s *StubRepository) UpdateEntry(ctx context.Context, entry Entry) (Entry, error) {
	for i := range s.Entries {
		if s.Entries[i].Id == entry.Id {
			entry.UpdatedAt = time.Now()
			entry.DeletedOccurrences = s.Entries[i].DeletedOccurrences
			s.Entries[i] = entry
			return entry, nil
		}
	}
	return Entry{}, ErrEntryNotFound
}

func (s *StubRepository) DeleteEntry(ctx context.Context, id string) error {
	for i := range s.Entries {
		if s.Entries[i].Id == id {
			s.Entries = append(s.Entries[:i], s.Entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

func (s *StubRepository) MarkOccurrenceDeleted(ctx context.Context, id string, date time.Time) error {
	for i := range s.Entries {
		if s.Entries[i].Id == id {
			day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
			for _, existing := range s.Entries[i].DeletedOccurrences {
				if existing.Equal(day) {
					return nil
				}
			}
			s.Entries[i].DeletedOccurrences = append(s.Entries[i].DeletedOccurrences, day)
			s.Entries[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrEntryNotFound
}

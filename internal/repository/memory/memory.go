// Package memory is an in-process record store used for development and
// tests. It honours the same conditional write rules as the PostgreSQL
// repositories.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
)

type Store struct {
	mu         sync.RWMutex
	seq        int64
	identities map[string]entity.Identity
	attendance map[string]entity.Attendance
	latest     map[entity.Modality]entity.LatestEvent
}

func NewStore() *Store {
	return &Store{
		identities: make(map[string]entity.Identity),
		attendance: make(map[string]entity.Attendance),
		latest:     make(map[entity.Modality]entity.LatestEvent),
	}
}

func identityKey(modality entity.Modality, key string) string {
	return modality.Namespace() + "/" + key
}

func attendanceKey(date, uid string) string {
	return "attendance/" + date + "/" + uid
}

// identities

func (s *Store) GetIdentity(_ context.Context, modality entity.Modality, key string) (entity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.identities[identityKey(modality, key)]
	if !ok {
		return entity.Identity{}, repository.ErrNotFound
	}
	return doc, nil
}

func (s *Store) SaveIdentity(_ context.Context, doc entity.Identity) (entity.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := identityKey(doc.Modality, doc.LookupKey)
	now := time.Now()
	if prev, ok := s.identities[k]; ok {
		doc.ID = prev.ID
		doc.CreatedAt = prev.CreatedAt
		doc.UpdatedAt = &now
	} else {
		s.seq++
		doc.ID = s.seq
		doc.CreatedAt = now
	}
	s.identities[k] = doc

	return doc, nil
}

func (s *Store) ListIdentities(_ context.Context, modality entity.Modality) ([]entity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []entity.Identity
	for _, doc := range s.identities {
		if modality == "" || doc.Modality == modality {
			list = append(list, doc)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Modality != list[j].Modality {
			return list[i].Modality < list[j].Modality
		}
		return list[i].LookupKey < list[j].LookupKey
	})

	return list, nil
}

func (s *Store) DeleteIdentity(_ context.Context, modality entity.Modality, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := identityKey(modality, key)
	if _, ok := s.identities[k]; !ok {
		return repository.ErrNotFound
	}
	delete(s.identities, k)

	return nil
}

// attendance

func (s *Store) GetAttendance(_ context.Context, date, uid string) (entity.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.attendance[attendanceKey(date, uid)]
	if !ok {
		return entity.Attendance{}, repository.ErrNotFound
	}
	return record, nil
}

func (s *Store) CheckIn(_ context.Context, record entity.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := attendanceKey(record.Date, record.UID)
	if _, ok := s.attendance[k]; ok {
		return repository.ErrConflict
	}
	record.Checkout, record.WorkedHours, record.Status = nil, nil, nil
	s.seq++
	record.ID = s.seq
	record.CreatedAt = time.Now()
	s.attendance[k] = record

	return nil
}

func (s *Store) CheckOut(_ context.Context, date, uid string, out entity.CheckOut) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := attendanceKey(date, uid)
	record, ok := s.attendance[k]
	if !ok {
		return repository.ErrNotFound
	}
	if !record.Open() {
		return repository.ErrConflict
	}
	record = out.Apply(record)
	now := time.Now()
	record.UpdatedAt = &now
	s.attendance[k] = record

	return nil
}

func (s *Store) ListAttendance(_ context.Context, filter repository.AttendanceFilter) ([]entity.Attendance, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []entity.Attendance
	for _, record := range s.attendance {
		if record.Date == filter.Date && matches(record, filter) {
			list = append(list, record)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Checkin != list[j].Checkin {
			return list[i].Checkin < list[j].Checkin
		}
		return list[i].UID < list[j].UID
	})

	count := len(list)
	offset, limit := filter.Window()
	if offset >= len(list) {
		return nil, count, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}

	return list, count, nil
}

func matches(record entity.Attendance, filter repository.AttendanceFilter) bool {
	if filter.Search != nil {
		q := strings.ToLower(*filter.Search)
		if !strings.Contains(strings.ToLower(record.UID), q) &&
			!strings.Contains(strings.ToLower(record.Name), q) &&
			!strings.Contains(strings.ToLower(record.Plate), q) {
			return false
		}
	}
	if filter.Shift != nil && record.Shift != *filter.Shift {
		return false
	}
	if filter.Punctuality != nil && record.Punctuality != *filter.Punctuality {
		return false
	}
	if filter.Status != nil && (record.Status == nil || *record.Status != *filter.Status) {
		return false
	}
	if filter.Open != nil && record.Open() != *filter.Open {
		return false
	}
	return true
}

// latest

func (s *Store) SetLatest(_ context.Context, modality entity.Modality, event entity.LatestEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest[modality] = event
	return nil
}

func (s *Store) GetLatest(_ context.Context, modality entity.Modality) (entity.LatestEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.latest[modality]
	if !ok {
		return entity.LatestEvent{}, repository.ErrNotFound
	}
	return event, nil
}

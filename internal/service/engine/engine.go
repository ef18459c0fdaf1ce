// Package engine turns identity events into daily attendance records.
//
// Every event walks the same path: resolve the identity behind the plate or
// RFID key, lock the (date, uid) slot, then either open the day's record
// (check-in) or close it (check-out). A closed record is terminal for the
// day. The latest-event pointer of the modality is overwritten for every
// resolved event.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"

	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
	"smartattendance/backend/internal/service/shift"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04:05"
)

type Outcome string

const (
	OutcomeCheckIn       Outcome = "check_in"
	OutcomeCheckOut      Outcome = "check_out"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeAlreadyClosed Outcome = "already_closed"
)

// IdentityStore looks up identity documents. A missing document is
// reported as repository.ErrNotFound.
type IdentityStore interface {
	GetIdentity(ctx context.Context, modality entity.Modality, key string) (entity.Identity, error)
}

// RecordStore reads and conditionally writes daily attendance records.
// CheckIn must fail with repository.ErrConflict when a record for the slot
// already exists; CheckOut must fail with repository.ErrConflict when the
// record is not open.
type RecordStore interface {
	GetAttendance(ctx context.Context, date, uid string) (entity.Attendance, error)
	CheckIn(ctx context.Context, record entity.Attendance) error
	CheckOut(ctx context.Context, date, uid string, out entity.CheckOut) error
}

// LatestStore overwrites the latest-event pointer of a modality.
type LatestStore interface {
	SetLatest(ctx context.Context, modality entity.Modality, event entity.LatestEvent) error
}

// Event is one observation of a credential at the entrance.
type Event struct {
	Modality  entity.Modality
	Key       string
	Timestamp string // local wall clock, TimestampLayout
}

// Identity is a resolved identity document with defaults applied.
type Identity struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Department string `json:"jabatan"`
	Plate      string `json:"plate"`
}

type Result struct {
	Outcome  Outcome            `json:"outcome"`
	Modality entity.Modality    `json:"modality"`
	Key      string             `json:"key"`
	Date     string             `json:"date"`
	Time     string             `json:"time"`
	Identity *Identity          `json:"identity,omitempty"`
	Record   *entity.Attendance `json:"record,omitempty"`
}

type Engine struct {
	log        *log.Logger
	policy     shift.Policy
	identities IdentityStore
	records    RecordStore
	latest     LatestStore
	locker     Locker
}

func NewEngine(
	log *log.Logger,
	policy shift.Policy,
	identities IdentityStore,
	records RecordStore,
	latest LatestStore,
	locker Locker,
) *Engine {
	return &Engine{
		log:        log,
		policy:     policy,
		identities: identities,
		records:    records,
		latest:     latest,
		locker:     locker,
	}
}

// ParseTimestamp parses a local wall-clock event timestamp.
func ParseTimestamp(ts string) (time.Time, error) {
	if strings.TrimSpace(ts) == "" {
		return time.Time{}, malformed("timestamp is required")
	}
	at, err := time.ParseInLocation(TimestampLayout, ts, time.Local)
	if err != nil {
		return time.Time{}, malformed("timestamp %q: %v", ts, err)
	}
	return at, nil
}

// Process applies one event. Unknown identities and events for an already
// closed record are reported through the Outcome with a nil error.
func (e *Engine) Process(ctx context.Context, ev Event) (Result, error) {
	if _, err := entity.ParseModality(string(ev.Modality)); err != nil {
		return Result{}, malformed("%v", err)
	}
	if ev.Key == "" {
		return Result{}, malformed("%s key is required", ev.Modality)
	}

	at, err := ParseTimestamp(ev.Timestamp)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Modality: ev.Modality,
		Key:      ev.Key,
		Date:     at.Format(DateLayout),
		Time:     at.Format(ClockLayout),
	}

	id, err := e.Resolve(ctx, ev.Modality, ev.Key)
	if errors.Is(err, ErrUnrecognizedIdentity) {
		e.log.Printf("%s %s not registered, nothing saved", strings.ToUpper(string(ev.Modality)), ev.Key)
		res.Outcome = OutcomeSkipped
		return res, nil
	}
	if err != nil {
		return res, err
	}
	res.Identity = &id

	unlock, err := e.locker.Lock(ctx, lockKey(res.Date, id.UID))
	if err != nil {
		return res, unavailable(err, "locking attendance record")
	}
	defer unlock()

	record, outcome, err := e.transition(ctx, id, at)
	if errors.Is(err, repository.ErrConflict) {
		// Another writer changed the slot between our read and write.
		record, outcome, err = e.transition(ctx, id, at)
	}
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return res, unavailable(err, "writing attendance record")
		}
		return res, err
	}
	res.Record = &record
	res.Outcome = outcome

	if outcome == OutcomeAlreadyClosed {
		e.log.Printf("attendance %s/%s already closed at %s, event at %s ignored", res.Date, id.UID, deref(record.Checkout), res.Time)
	}

	latest := entity.LatestEvent{
		Name:      id.Name,
		Date:      res.Date,
		Time:      res.Time,
		Timestamp: ev.Timestamp,
	}
	if ev.Modality == entity.ModalityPlate {
		latest.Plate = &id.Plate
	} else {
		latest.UID = &id.UID
	}
	if err := e.latest.SetLatest(ctx, ev.Modality, latest); err != nil {
		return res, unavailable(err, "writing latest event")
	}

	return res, nil
}

// Resolve looks up the identity registered for key.
func (e *Engine) Resolve(ctx context.Context, modality entity.Modality, key string) (Identity, error) {
	doc, err := e.identities.GetIdentity(ctx, modality, key)
	if errors.Is(err, repository.ErrNotFound) {
		return Identity{}, errors.Wrapf(ErrUnrecognizedIdentity, "%s/%s", modality.Namespace(), key)
	}
	if err != nil {
		return Identity{}, unavailable(err, "reading identity")
	}

	id := Identity{
		UID:        orDefault(doc.UID, key),
		Name:       orDefault(doc.Name, "-"),
		Department: orDefault(doc.Department, "-"),
		Plate:      doc.Plate,
	}
	if id.Plate == "" {
		if modality == entity.ModalityPlate {
			id.Plate = key
		} else {
			id.Plate = "-"
		}
	}

	return id, nil
}

func (e *Engine) transition(ctx context.Context, id Identity, at time.Time) (entity.Attendance, Outcome, error) {
	date, clock := at.Format(DateLayout), at.Format(ClockLayout)
	s := e.policy.Resolve(at)

	current, err := e.records.GetAttendance(ctx, date, id.UID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		record := entity.Attendance{
			Date:        date,
			UID:         id.UID,
			Name:        id.Name,
			Department:  id.Department,
			Plate:       id.Plate,
			Shift:       s.Name,
			Punctuality: e.policy.Punctuality(at, s),
			Checkin:     clock,
		}
		if err := e.records.CheckIn(ctx, record); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return entity.Attendance{}, "", err
			}
			return entity.Attendance{}, "", unavailable(err, "writing check-in")
		}
		return record, OutcomeCheckIn, nil

	case err != nil:
		return entity.Attendance{}, "", unavailable(err, "reading attendance record")

	case !current.Open():
		return current, OutcomeAlreadyClosed, nil
	}

	elapsed, err := Elapsed(date, current.Checkin, at)
	if err != nil {
		return entity.Attendance{}, "", errors.Wrapf(err, "attendance %s/%s", date, id.UID)
	}

	out := entity.CheckOut{
		Checkout:    clock,
		WorkedHours: FormatWorked(elapsed),
		Status:      entity.Incomplete,
		Punctuality: orDefault(current.Punctuality, entity.Late),
		Shift:       s.Name,
	}
	if elapsed.Hours() >= s.MinHours {
		out.Status = entity.Complete
	}

	if err := e.records.CheckOut(ctx, date, id.UID, out); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return entity.Attendance{}, "", err
		}
		return entity.Attendance{}, "", unavailable(err, "writing check-out")
	}

	return out.Apply(current), OutcomeCheckOut, nil
}

// Elapsed returns the time between the stored checkin clock on date and
// the checkout instant at. A checkout that reads earlier than the checkin
// is taken to be on the following calendar day.
func Elapsed(date, checkin string, at time.Time) (time.Duration, error) {
	in, err := time.ParseInLocation(TimestampLayout, date+" "+checkin, at.Location())
	if err != nil {
		return 0, errors.Wrap(err, "parsing stored checkin")
	}

	out := at
	if out.Before(in) {
		out = out.AddDate(0, 0, 1)
	}

	return out.Sub(in), nil
}

// FormatWorked renders d as whole hours and remaining minutes. Hours are
// not capped at a day.
func FormatWorked(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d hour %d min", hours, minutes)
}

func lockKey(date, uid string) string {
	return "attendance:" + date + ":" + uid
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package engine_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"smartattendance/backend/internal/entity"
	"smartattendance/backend/internal/repository"
	"smartattendance/backend/internal/repository/memory"
	"smartattendance/backend/internal/service/engine"
	"smartattendance/backend/internal/service/shift"
)

// 2024-06-03 is a Monday, 2024-06-07 a Friday.
const monday = "2024-06-03"

func newEngine(t *testing.T) (*engine.Engine, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	ctx := context.Background()
	for _, doc := range []entity.Identity{
		{Modality: entity.ModalityPlate, LookupKey: "ABC123", UID: "U1", Name: "Ali", Department: "IT"},
		{Modality: entity.ModalityRFID, LookupKey: "04A1B2C3", UID: "U2", Name: "Siti", Department: "HR", Plate: "WXY1"},
		{Modality: entity.ModalityPlate, LookupKey: "NOUID1"},
	} {
		if _, err := store.SaveIdentity(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}

	e := engine.NewEngine(log.New(io.Discard, "", 0), shift.DefaultPolicy(), store, store, store, engine.NewLocalLocker())
	return e, store
}

func process(t *testing.T, e *engine.Engine, modality entity.Modality, key, ts string) engine.Result {
	t.Helper()

	res, err := e.Process(context.Background(), engine.Event{Modality: modality, Key: key, Timestamp: ts})
	if err != nil {
		t.Fatalf("Process(%s %s %s): %v", modality, key, ts, err)
	}
	return res
}

func TestCheckInThenCheckOut(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	res := process(t, e, entity.ModalityPlate, "ABC123", monday+" 07:55:00")
	if res.Outcome != engine.OutcomeCheckIn {
		t.Fatalf("first event outcome = %q, want check_in", res.Outcome)
	}

	rec, err := store.GetAttendance(ctx, monday, "U1")
	if err != nil {
		t.Fatalf("GetAttendance after check-in: %v", err)
	}
	if rec.Checkin != "07:55:00" || rec.Checkout != nil || rec.Shift != "A" || rec.Punctuality != entity.Punctual {
		t.Errorf("open record = %+v", rec)
	}
	if rec.Name != "Ali" || rec.Department != "IT" || rec.Plate != "ABC123" || rec.Date != monday {
		t.Errorf("identity fields = %+v", rec)
	}
	if rec.WorkedHours != nil || rec.Status != nil {
		t.Errorf("open record has checkout fields: %+v", rec)
	}

	res = process(t, e, entity.ModalityPlate, "ABC123", monday+" 17:00:00")
	if res.Outcome != engine.OutcomeCheckOut {
		t.Fatalf("second event outcome = %q, want check_out", res.Outcome)
	}

	rec, _ = store.GetAttendance(ctx, monday, "U1")
	if rec.Checkout == nil || *rec.Checkout != "17:00:00" {
		t.Fatalf("checkout = %v, want 17:00:00", rec.Checkout)
	}
	if *rec.WorkedHours != "9 hour 5 min" {
		t.Errorf("workedHours = %q, want %q", *rec.WorkedHours, "9 hour 5 min")
	}
	if *rec.Status != entity.Complete {
		t.Errorf("status = %q, want Complete", *rec.Status)
	}
	if rec.Punctuality != entity.Punctual || rec.Checkin != "07:55:00" {
		t.Errorf("check-in fields not preserved: %+v", rec)
	}
	// 17:00 on a Monday resolves to shift B; the checkout writes it.
	if rec.Shift != "B" {
		t.Errorf("shift after checkout = %q, want B", rec.Shift)
	}
	if res.Record == nil || *res.Record.Checkout != "17:00:00" {
		t.Errorf("result record = %+v", res.Record)
	}
}

func TestUnregisteredPlateSkipped(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	res := process(t, e, entity.ModalityPlate, "ZZZ999", monday+" 07:55:00")
	if res.Outcome != engine.OutcomeSkipped {
		t.Fatalf("outcome = %q, want skipped", res.Outcome)
	}
	if res.Identity != nil || res.Record != nil {
		t.Errorf("skipped result carries data: %+v", res)
	}

	list, _, _ := store.ListAttendance(ctx, repository.AttendanceFilter{Date: monday})
	if len(list) != 0 {
		t.Errorf("records created for unregistered plate: %+v", list)
	}
	if _, err := store.GetLatest(ctx, entity.ModalityPlate); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("latest pointer written for unregistered plate, err = %v", err)
	}
}

func TestShiftBPunctuality(t *testing.T) {
	tests := []struct {
		clock string
		want  string
	}{
		{"09:00:00", entity.Punctual},
		{"10:01:00", entity.Punctual},
		{"10:01:01", entity.Late},
	}
	for _, tt := range tests {
		e, store := newEngine(t)
		process(t, e, entity.ModalityPlate, "ABC123", monday+" "+tt.clock)

		rec, _ := store.GetAttendance(context.Background(), monday, "U1")
		if rec.Shift != "B" {
			t.Errorf("%s: shift = %q, want B", tt.clock, rec.Shift)
		}
		if rec.Punctuality != tt.want {
			t.Errorf("%s: punctuality = %q, want %q", tt.clock, rec.Punctuality, tt.want)
		}
	}
}

func TestCheckOutIncomplete(t *testing.T) {
	e, store := newEngine(t)

	process(t, e, entity.ModalityPlate, "ABC123", monday+" 08:30:00")
	process(t, e, entity.ModalityPlate, "ABC123", monday+" 15:29:00")

	rec, _ := store.GetAttendance(context.Background(), monday, "U1")
	if *rec.Status != entity.Incomplete {
		t.Errorf("status = %q, want Incomplete", *rec.Status)
	}
	if *rec.WorkedHours != "6 hour 59 min" {
		t.Errorf("workedHours = %q", *rec.WorkedHours)
	}
	if rec.Punctuality != entity.Punctual || rec.Shift != "B" {
		t.Errorf("carried fields = %q %q", rec.Punctuality, rec.Shift)
	}
}

func TestFridayMinimumHours(t *testing.T) {
	e, store := newEngine(t)
	const friday = "2024-06-07"

	process(t, e, entity.ModalityPlate, "ABC123", friday+" 08:05:00")
	process(t, e, entity.ModalityPlate, "ABC123", friday+" 12:05:00")

	rec, _ := store.GetAttendance(context.Background(), friday, "U1")
	if rec.Punctuality != entity.Late {
		t.Errorf("punctuality = %q, want Late", rec.Punctuality)
	}
	if *rec.Status != entity.Complete {
		t.Errorf("status = %q, want Complete after 4 hours on Friday", *rec.Status)
	}
}

func TestCheckOutRollsOverMidnight(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	seed := entity.Attendance{Date: monday, UID: "U1", Name: "Ali", Shift: "B", Punctuality: entity.Late, Checkin: "23:50:00"}
	if err := store.CheckIn(ctx, seed); err != nil {
		t.Fatal(err)
	}

	process(t, e, entity.ModalityPlate, "ABC123", monday+" 00:10:00")

	rec, _ := store.GetAttendance(ctx, monday, "U1")
	if *rec.WorkedHours != "0 hour 20 min" {
		t.Errorf("workedHours = %q, want 0 hour 20 min", *rec.WorkedHours)
	}
	if *rec.Status != entity.Incomplete {
		t.Errorf("status = %q, want Incomplete", *rec.Status)
	}
}

func TestElapsed(t *testing.T) {
	at := time.Date(2024, 6, 3, 0, 10, 0, 0, time.Local)
	d, err := engine.Elapsed(monday, "23:50:00", at)
	if err != nil {
		t.Fatal(err)
	}
	if d != 20*time.Minute {
		t.Errorf("Elapsed = %v, want 20m", d)
	}

	at = time.Date(2024, 6, 3, 17, 0, 0, 0, time.Local)
	if d, _ := engine.Elapsed(monday, "07:55:00", at); d != 9*time.Hour+5*time.Minute {
		t.Errorf("Elapsed = %v, want 9h5m", d)
	}

	if _, err := engine.Elapsed(monday, "garbage", at); err == nil {
		t.Error("Elapsed accepted a malformed checkin")
	}
}

func TestElapsedAcrossDSTFallBack(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}

	// 2024-11-03 has 25 hours in New York.
	at := time.Date(2024, 11, 3, 0, 10, 0, 0, loc)
	d, err := engine.Elapsed("2024-11-03", "23:50:00", at)
	if err != nil {
		t.Fatal(err)
	}
	if d != 20*time.Minute {
		t.Errorf("Elapsed = %v, want 20m", d)
	}
}

func TestFormatWorked(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0 hour 0 min"},
		{59 * time.Second, "0 hour 0 min"},
		{20 * time.Minute, "0 hour 20 min"},
		{9*time.Hour + 5*time.Minute + 30*time.Second, "9 hour 5 min"},
		{30 * time.Hour, "30 hour 0 min"},
		{-time.Minute, "0 hour 0 min"},
	}
	for _, tt := range tests {
		if got := engine.FormatWorked(tt.d); got != tt.want {
			t.Errorf("FormatWorked(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestThirdEventAlreadyClosed(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	process(t, e, entity.ModalityPlate, "ABC123", monday+" 07:55:00")
	process(t, e, entity.ModalityPlate, "ABC123", monday+" 17:00:00")
	res := process(t, e, entity.ModalityPlate, "ABC123", monday+" 18:00:00")

	if res.Outcome != engine.OutcomeAlreadyClosed {
		t.Fatalf("third event outcome = %q, want already_closed", res.Outcome)
	}
	rec, _ := store.GetAttendance(ctx, monday, "U1")
	if *rec.Checkout != "17:00:00" || *rec.WorkedHours != "9 hour 5 min" {
		t.Errorf("closed record modified: %+v", rec)
	}

	latest, err := store.GetLatest(ctx, entity.ModalityPlate)
	if err != nil {
		t.Fatal(err)
	}
	if latest.Time != "18:00:00" {
		t.Errorf("latest time = %q, want 18:00:00", latest.Time)
	}
}

func TestLatestPointerPerModality(t *testing.T) {
	e, store := newEngine(t)
	ctx := context.Background()

	process(t, e, entity.ModalityPlate, "ABC123", monday+" 07:55:00")
	process(t, e, entity.ModalityRFID, "04A1B2C3", monday+" 07:58:00")

	plate, err := store.GetLatest(ctx, entity.ModalityPlate)
	if err != nil {
		t.Fatal(err)
	}
	if plate.Plate == nil || *plate.Plate != "ABC123" || plate.UID != nil {
		t.Errorf("latestPlate = %+v", plate)
	}
	if plate.Name != "Ali" || plate.Date != monday || plate.Time != "07:55:00" || plate.Timestamp != monday+" 07:55:00" {
		t.Errorf("latestPlate = %+v", plate)
	}

	rfid, err := store.GetLatest(ctx, entity.ModalityRFID)
	if err != nil {
		t.Fatal(err)
	}
	if rfid.UID == nil || *rfid.UID != "U2" || rfid.Plate != nil || rfid.Name != "Siti" {
		t.Errorf("latestRFID = %+v", rfid)
	}

	rec, _ := store.GetAttendance(ctx, monday, "U2")
	if rec.Plate != "WXY1" {
		t.Errorf("rfid record plate = %q, want canonical plate", rec.Plate)
	}
}

func TestResolveDefaults(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()

	id, err := e.Resolve(ctx, entity.ModalityPlate, "NOUID1")
	if err != nil {
		t.Fatal(err)
	}
	want := engine.Identity{UID: "NOUID1", Name: "-", Department: "-", Plate: "NOUID1"}
	if id != want {
		t.Errorf("Resolve = %+v, want %+v", id, want)
	}

	again, _ := e.Resolve(ctx, entity.ModalityPlate, "NOUID1")
	if again != id {
		t.Errorf("Resolve not stable: %+v vs %+v", again, id)
	}

	if _, err := e.Resolve(ctx, entity.ModalityRFID, "ABC123"); !errors.Is(err, engine.ErrUnrecognizedIdentity) {
		t.Errorf("plate key resolved under rfid namespace, err = %v", err)
	}
}

func TestMalformedInput(t *testing.T) {
	e, _ := newEngine(t)

	tests := []engine.Event{
		{Modality: entity.ModalityPlate, Key: "ABC123", Timestamp: ""},
		{Modality: entity.ModalityPlate, Key: "ABC123", Timestamp: "2024-06-03T07:55:00"},
		{Modality: entity.ModalityPlate, Key: "", Timestamp: monday + " 07:55:00"},
		{Modality: "face", Key: "ABC123", Timestamp: monday + " 07:55:00"},
	}
	for _, ev := range tests {
		if _, err := e.Process(context.Background(), ev); !errors.Is(err, engine.ErrMalformedInput) {
			t.Errorf("Process(%+v) err = %v, want ErrMalformedInput", ev, err)
		}
	}
}

type failingStore struct {
	*memory.Store
	failGet bool
}

var errDown = errors.New("connection refused")

func (f failingStore) GetAttendance(ctx context.Context, date, uid string) (entity.Attendance, error) {
	if f.failGet {
		return entity.Attendance{}, errDown
	}
	return f.Store.GetAttendance(ctx, date, uid)
}

func (f failingStore) CheckIn(context.Context, entity.Attendance) error {
	return errDown
}

func TestStoreUnavailable(t *testing.T) {
	for _, failGet := range []bool{true, false} {
		store := memory.NewStore()
		ctx := context.Background()
		if _, err := store.SaveIdentity(ctx, entity.Identity{Modality: entity.ModalityRFID, LookupKey: "C1"}); err != nil {
			t.Fatal(err)
		}

		fs := failingStore{Store: store, failGet: failGet}
		e := engine.NewEngine(log.New(io.Discard, "", 0), shift.DefaultPolicy(), fs, fs, fs, engine.NewLocalLocker())

		_, err := e.Process(ctx, engine.Event{Modality: entity.ModalityRFID, Key: "C1", Timestamp: monday + " 08:00:00"})
		if !errors.Is(err, engine.ErrStoreUnavailable) {
			t.Errorf("failGet=%v: err = %v, want ErrStoreUnavailable", failGet, err)
		}
		if !errors.Is(err, errDown) {
			t.Errorf("failGet=%v: cause lost: %v", failGet, err)
		}
		if _, err := store.GetLatest(ctx, entity.ModalityRFID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("failGet=%v: latest written after failure", failGet)
		}
	}
}

// racingStore hides existing records from reads so every caller takes the
// check-in branch, as two unsynchronized processes could.
type racingStore struct {
	*memory.Store
	once sync.Once
}

func (r *racingStore) GetAttendance(ctx context.Context, date, uid string) (entity.Attendance, error) {
	hide := false
	r.once.Do(func() { hide = true })
	if hide {
		return entity.Attendance{}, repository.ErrNotFound
	}
	return r.Store.GetAttendance(ctx, date, uid)
}

func TestConflictReevaluates(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	if _, err := store.SaveIdentity(ctx, entity.Identity{Modality: entity.ModalityRFID, LookupKey: "C1", UID: "U9"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CheckIn(ctx, entity.Attendance{Date: monday, UID: "U9", Shift: "A", Punctuality: entity.Punctual, Checkin: "07:00:00"}); err != nil {
		t.Fatal(err)
	}

	rs := &racingStore{Store: store}
	e := engine.NewEngine(log.New(io.Discard, "", 0), shift.DefaultPolicy(), rs, rs, rs, engine.NewLocalLocker())

	res, err := e.Process(ctx, engine.Event{Modality: entity.ModalityRFID, Key: "C1", Timestamp: monday + " 15:00:00"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Outcome != engine.OutcomeCheckOut {
		t.Errorf("outcome = %q, want check_out after conflict", res.Outcome)
	}
	rec, _ := store.GetAttendance(ctx, monday, "U9")
	if rec.Checkin != "07:00:00" || *rec.WorkedHours != "8 hour 0 min" {
		t.Errorf("record = %+v", rec)
	}
}

func TestConcurrentSameIdentity(t *testing.T) {
	e, store := newEngine(t)

	var wg sync.WaitGroup
	results := make([]engine.Result, 6)
	errs := make([]error, 6)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Process(context.Background(), engine.Event{
				Modality:  entity.ModalityPlate,
				Key:       "ABC123",
				Timestamp: monday + " 07:55:00",
			})
		}(i)
	}
	wg.Wait()

	counts := map[engine.Outcome]int{}
	for i, res := range results {
		if errs[i] != nil {
			t.Fatalf("Process: %v", errs[i])
		}
		counts[res.Outcome]++
	}
	if counts[engine.OutcomeCheckIn] != 1 || counts[engine.OutcomeCheckOut] != 1 || counts[engine.OutcomeAlreadyClosed] != 4 {
		t.Errorf("outcomes = %v, want one check-in, one check-out, four already_closed", counts)
	}

	rec, _ := store.GetAttendance(context.Background(), monday, "U1")
	if rec.Checkin != "07:55:00" || rec.Open() {
		t.Errorf("record = %+v", rec)
	}
}

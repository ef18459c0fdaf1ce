package entity

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	Punctual = "Punctual"
	Late     = "Late"

	Complete   = "Complete"
	Incomplete = "Incomplete"
)

// Attendance is the daily record of one identity, keyed by (Date, UID).
// Checkout is nil while the record is open.
type Attendance struct {
	bun.BaseModel `bun:"table:attendance"`

	ID          int64      `json:"-"                     bun:"id,pk,autoincrement"`
	Date        string     `json:"date"                  bun:"work_day"`
	UID         string     `json:"uid"                   bun:"uid"`
	Name        string     `json:"name"                  bun:"name"`
	Department  string     `json:"jabatan"               bun:"jabatan"`
	Plate       string     `json:"plate"                 bun:"plate"`
	Shift       string     `json:"shift"                 bun:"shift"`
	Punctuality string     `json:"punctuality"           bun:"punctuality"`
	Checkin     string     `json:"checkin"               bun:"checkin"`
	Checkout    *string    `json:"checkout"              bun:"checkout"`
	WorkedHours *string    `json:"workedHours,omitempty" bun:"worked_hours"`
	Status      *string    `json:"status,omitempty"      bun:"status"`
	CreatedAt   time.Time  `json:"-"                     bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   *time.Time `json:"-"                     bun:"updated_at"`
}

func (a Attendance) Open() bool {
	return a.Checkout == nil
}

// CheckOut holds the fields written when an open record is closed.
type CheckOut struct {
	Checkout    string
	WorkedHours string
	Status      string
	Punctuality string
	Shift       string
}

// Apply returns a copy of a closed with c.
func (c CheckOut) Apply(a Attendance) Attendance {
	checkout, worked, status := c.Checkout, c.WorkedHours, c.Status
	a.Checkout = &checkout
	a.WorkedHours = &worked
	a.Status = &status
	a.Punctuality = c.Punctuality
	a.Shift = c.Shift
	return a
}

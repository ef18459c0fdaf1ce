package entity

import (
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Modality is the kind of credential an event was observed with.
type Modality string

const (
	ModalityPlate Modality = "plate"
	ModalityRFID  Modality = "rfid"
)

// ErrInvalidModality is returned by ParseModality for unknown values.
var ErrInvalidModality = errors.New("modality must be plate or rfid")

func ParseModality(s string) (Modality, error) {
	switch m := Modality(s); m {
	case ModalityPlate, ModalityRFID:
		return m, nil
	}
	return "", errors.Wrapf(ErrInvalidModality, "got %q", s)
}

// Namespace is the logical collection identity documents of this modality
// live under: plates/{plate} or rfid_cards/{uid}.
func (m Modality) Namespace() string {
	if m == ModalityPlate {
		return "plates"
	}
	return "rfid_cards"
}

// LatestKey names the last-write-wins pointer for this modality.
func (m Modality) LatestKey() string {
	if m == ModalityPlate {
		return "latestPlate"
	}
	return "latestRFID"
}

// Identity is a registered credential. UID and Plate are optional in the
// stored document; readers fall back to the lookup key.
type Identity struct {
	bun.BaseModel `bun:"table:identity"`

	ID         int64      `json:"-"          bun:"id,pk,autoincrement"`
	Modality   Modality   `json:"modality"   bun:"modality"`
	LookupKey  string     `json:"key"        bun:"lookup_key"`
	UID        string     `json:"uid"        bun:"uid"`
	Name       string     `json:"name"       bun:"name"`
	Department string     `json:"jabatan"    bun:"jabatan"`
	Plate      string     `json:"plate"      bun:"plate"`
	CreatedAt  time.Time  `json:"created_at" bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty" bun:"updated_at"`
}

package entity

// LatestEvent is the most recent resolved event of one modality. Plate is
// set for plate events, UID for rfid events.
type LatestEvent struct {
	Plate     *string `json:"plate"`
	UID       *string `json:"uid"`
	Name      string  `json:"name"`
	Date      string  `json:"date"`
	Time      string  `json:"time"`
	Timestamp string  `json:"timestamp"`
}

package ingest

import "smartattendance/backend/internal/service/engine"

type RFIDRequest struct {
	UID string `json:"uid" form:"uid"`
}

type RFIDResponse struct {
	UID        string        `json:"uid"`
	Time       string        `json:"time"`
	Attendance engine.Result `json:"attendance"`
}

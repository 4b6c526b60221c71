package models

import "time"

// NotificationEvent is emitted when a reviewing department holds or rejects a bill.
type NotificationEvent struct {
	BillID     string        `json:"bill_id"`
	EmployeeID string        `json:"employee_id"`
	Department OverallStatus `json:"department"`
	Stage      Stage         `json:"stage"`
	Action     Action        `json:"action"`
	Remark     string        `json:"remark"`
	Actor      string        `json:"actor"`
	Timestamp  time.Time     `json:"timestamp"`
}

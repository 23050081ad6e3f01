package model

import "time"

// Training is a single workout recorded by a device and attached to an account.
type Training struct {
	ID             int64
	AccountID      int64
	DeviceName     string
	DeviceFirmware string
	CreatedDate    time.Time
	Time           int // seconds
	Type           string
	Calories       int
}

// TrainingRequest represents a training create or update payload.
type TrainingRequest struct {
	DeviceName     string `json:"device_name"`
	DeviceFirmware string `json:"device_firmware"`
	Time           int    `json:"time"`
	Type           string `json:"type"`
	Calories       int    `json:"calories"`
}

// TrainingResponse represents a training returned by the API.
type TrainingResponse struct {
	ID             int64     `json:"id"`
	AccountID      int64     `json:"account_id"`
	DeviceName     string    `json:"device_name"`
	DeviceFirmware string    `json:"device_firmware"`
	CreatedDate    time.Time `json:"created_date"`
	Time           int       `json:"time"`
	Type           string    `json:"type"`
	Calories       int       `json:"calories"`
}

func (t Training) ToResponse() TrainingResponse {
	return TrainingResponse{
		ID:             t.ID,
		AccountID:      t.AccountID,
		DeviceName:     t.DeviceName,
		DeviceFirmware: t.DeviceFirmware,
		CreatedDate:    t.CreatedDate,
		Time:           t.Time,
		Type:           t.Type,
		Calories:       t.Calories,
	}
}

package models

import "time"

// Device is identified by the (Username, DeviceName) pair. Token is the
// single active bearer credential; re-login replaces it wholesale.
type Device struct {
	Username   string
	DeviceName string
	Token      string
	CreatedAt  time.Time
}

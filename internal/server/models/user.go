package models

import "time"

type User struct {
	Username     string
	PasswordHash []byte
	PasswordSalt []byte
	CreatedAt    time.Time
}

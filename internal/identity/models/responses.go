package models

import "time"

type RegisterResult struct {
	Person      *Person   `json:"user"`
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type LoginResult = RegisterResult

package models

import "time"

// NGOAccount mirrors an ngo_accounts row.
type NGOAccount struct {
	ID           string
	OrgName      string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NGOIdentity is the verified caller identity handed to story operations.
type NGOIdentity struct {
	ID      string
	Email   string
	OrgName string
}

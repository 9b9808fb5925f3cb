package models

import "time"

type StudentProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AgeGroup  string    `json:"ageGroup"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"createdAt"`
}

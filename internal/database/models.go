package database

import "time"

// Transcript is the metadata index record for one session transcript.
// The event log itself lives in a per-session text file; this row only
// tracks identity and freshness for listing.
type Transcript struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Host          string    `gorm:"not null" json:"host"`
	Username      string    `gorm:"not null" json:"username"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastUpdatedAt time.Time `gorm:"index" json:"last_updated_at"`
}

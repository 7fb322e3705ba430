package domain

import "time"

// PersonalizedQuote is one quote generated from a completed report.
type PersonalizedQuote struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	JobID     string    `gorm:"type:text;not null;index:idx_quotes_job" json:"job_id"`
	Position  int       `json:"position"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	Category  string    `gorm:"type:text" json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for PersonalizedQuote.
func (PersonalizedQuote) TableName() string {
	return "personalized_quotes"
}

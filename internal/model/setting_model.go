package model

import "time"

// CredentialSettingKey is where the user's own API key is kept.
const CredentialSettingKey = "user_api_key"

type Setting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Setting) TableName() string {
	return "settings"
}

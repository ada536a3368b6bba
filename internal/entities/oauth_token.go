package entities

import (
	"time"

	"gorm.io/gorm"
)

// OAuthToken stores an encrypted OAuth1 access token for a remote service
type OAuthToken struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Provider names the configured OAuth1 service
	Provider string `gorm:"type:varchar(50);not null;uniqueIndex:idx_provider_account" json:"provider"`

	// AccountID identifies the account on the provider, or the consumer key
	// when the provider does not report one
	AccountID string `gorm:"type:varchar(255);not null;uniqueIndex:idx_provider_account" json:"account_id"`

	// Token and Secret are base64-encoded XChaCha20-Poly1305 ciphertext
	Token  string `gorm:"type:text;not null" json:"-"`
	Secret string `gorm:"type:text" json:"-"`

	Scope string `gorm:"type:text" json:"scope,omitempty"`

	// LastUsedAt tracks when the token was last used
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// TableName specifies the table name for GORM
func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// DecryptedToken holds the decrypted token values for use in memory
// This is never stored directly in the database
type DecryptedToken struct {
	Provider  string
	AccountID string
	Token     string
	Secret    string
	Scope     string
}

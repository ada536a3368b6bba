// Package tokenstore keeps OAuth1 access tokens in the database, sealed with
// internal/crypto so a copied database file does not leak them.
package tokenstore

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/mediamanager/internal/crypto"
	"github.com/mrlokans/mediamanager/internal/entities"
	"github.com/mrlokans/mediamanager/internal/oauth1"
)

// DefaultKeyFileName is the default name for the key file
const DefaultKeyFileName = ".mediamanager-token-key"

// TokenStore provides secure storage for OAuth tokens
type TokenStore struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
}

// Config holds configuration for the token store
type Config struct {
	// EncryptionKey is the base64-encoded 32-byte encryption key.
	// If empty, the key file is read or created.
	EncryptionKey string

	// KeyFilePath is the path to the encryption key file.
	// If empty, defaults to ~/.mediamanager-token-key
	KeyFilePath string
}

// New creates a TokenStore on an open database. The oauth_tokens table is
// migrated if missing.
func New(db *gorm.DB, cfg Config) (*TokenStore, error) {
	key, err := resolveEncryptionKey(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve encryption key")
	}

	encryptor, err := crypto.NewEncryptorFromBase64(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create encryptor")
	}

	if err := db.AutoMigrate(&entities.OAuthToken{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate schema")
	}

	return &TokenStore{
		db:        db,
		encryptor: encryptor,
	}, nil
}

// resolveEncryptionKey determines the encryption key from the config or the key file
func resolveEncryptionKey(cfg Config) (string, error) {
	if cfg.EncryptionKey != "" {
		return cfg.EncryptionKey, nil
	}

	keyFilePath := GetKeyFilePath(cfg.KeyFilePath)

	if data, err := os.ReadFile(keyFilePath); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", errors.Wrap(err, "failed to generate encryption key")
	}

	// Save key to file with restricted permissions
	if err := os.WriteFile(keyFilePath, []byte(newKey), 0o600); err != nil {
		return "", errors.Wrapf(err, "failed to save encryption key to %s", keyFilePath)
	}

	log.Info().Str("path", keyFilePath).Msg("generated new token encryption key")
	return newKey, nil
}

// SaveToken saves an OAuth token with encryption
func (s *TokenStore) SaveToken(token *entities.DecryptedToken) error {
	encToken, err := s.encryptor.Encrypt(token.Token)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt token")
	}

	encSecret, err := s.encryptor.Encrypt(token.Secret)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt token secret")
	}

	dbToken := &entities.OAuthToken{
		Provider:  token.Provider,
		AccountID: token.AccountID,
		Token:     encToken,
		Secret:    encSecret,
		Scope:     token.Scope,
	}

	// Upsert: update if exists, create if not
	result := s.db.Where("provider = ? AND account_id = ?", token.Provider, token.AccountID).
		Assign(map[string]interface{}{
			"token":      encToken,
			"secret":     encSecret,
			"scope":      token.Scope,
			"updated_at": time.Now(),
		}).
		FirstOrCreate(dbToken)

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to save token")
	}

	return nil
}

// GetToken retrieves and decrypts an OAuth token; nil when none is stored
func (s *TokenStore) GetToken(provider, accountID string) (*entities.DecryptedToken, error) {
	var dbToken entities.OAuthToken
	result := s.db.Where("provider = ? AND account_id = ?", provider, accountID).First(&dbToken)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get token")
	}

	return s.decryptToken(&dbToken)
}

// GetTokenByProvider retrieves the most recently updated token for a provider
func (s *TokenStore) GetTokenByProvider(provider string) (*entities.DecryptedToken, error) {
	var dbToken entities.OAuthToken
	result := s.db.Where("provider = ?", provider).Order("updated_at DESC").First(&dbToken)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get token")
	}

	return s.decryptToken(&dbToken)
}

// ListTokens returns all tokens for a provider (without decrypting)
func (s *TokenStore) ListTokens(provider string) ([]entities.OAuthToken, error) {
	var tokens []entities.OAuthToken
	result := s.db.Where("provider = ?", provider).Find(&tokens)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to list tokens")
	}
	return tokens, nil
}

// DeleteToken removes a token from storage
func (s *TokenStore) DeleteToken(provider, accountID string) error {
	result := s.db.Unscoped().Where("provider = ? AND account_id = ?", provider, accountID).
		Delete(&entities.OAuthToken{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete token")
	}
	return nil
}

// UpdateLastUsed updates the last_used_at timestamp for a token
func (s *TokenStore) UpdateLastUsed(provider, accountID string) error {
	result := s.db.Model(&entities.OAuthToken{}).
		Where("provider = ? AND account_id = ?", provider, accountID).
		Update("last_used_at", time.Now())
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update last used")
	}
	return nil
}

// SaveOAuth1 stores an access token obtained by an oauth1.Client.
func (s *TokenStore) SaveOAuth1(provider, accountID string, token *oauth1.Token, scope []string) error {
	if token == nil {
		return errors.New("no token to save")
	}
	return s.SaveToken(&entities.DecryptedToken{
		Provider:  provider,
		AccountID: accountID,
		Token:     token.Key,
		Secret:    token.Secret,
		Scope:     strings.Join(scope, " "),
	})
}

// LoadOAuth1 returns the latest access token for provider, or nil.
func (s *TokenStore) LoadOAuth1(provider string) (*oauth1.Token, error) {
	stored, err := s.GetTokenByProvider(provider)
	if err != nil || stored == nil {
		return nil, err
	}
	return &oauth1.Token{Key: stored.Token, Secret: stored.Secret}, nil
}

// decryptToken decrypts the sensitive fields of a token
func (s *TokenStore) decryptToken(dbToken *entities.OAuthToken) (*entities.DecryptedToken, error) {
	token, err := s.encryptor.Decrypt(dbToken.Token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt token")
	}

	secret, err := s.encryptor.Decrypt(dbToken.Secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt token secret")
	}

	return &entities.DecryptedToken{
		Provider:  dbToken.Provider,
		AccountID: dbToken.AccountID,
		Token:     token,
		Secret:    secret,
		Scope:     dbToken.Scope,
	}, nil
}

// GetKeyFilePath returns the path to the key file being used
func GetKeyFilePath(customPath string) string {
	if customPath != "" {
		return customPath
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultKeyFileName
	}
	return filepath.Join(homeDir, DefaultKeyFileName)
}

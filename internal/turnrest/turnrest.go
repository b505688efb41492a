// Package turnrest mints coturn-compatible ephemeral TURN credentials
// (TURN REST, draft-uberti-behave-turn-rest).
//
// Credential shape:
//
//	username   = <unix_expiry>:<prefix>:<client_id>
//	credential = base64(hmac_sha1(shared_secret, username))
//
// Expiry is the server clock in UTC plus the configured TTL. coturn parses
// the username on ':' which is why none of the segments may contain one.
package turnrest

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Credentials struct {
	Username   string
	Credential string
	ExpiryUnix int64
}

type Minter struct {
	sharedSecret []byte
	ttlSeconds   int64
	prefix       string
	now          func() time.Time
}

type MinterConfig struct {
	SharedSecret string
	TTLSeconds   int64
	Prefix       string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func NewMinter(cfg MinterConfig) (*Minter, error) {
	if cfg.SharedSecret == "" {
		return nil, errors.New("shared secret is required")
	}
	if cfg.TTLSeconds <= 0 {
		return nil, errors.New("TTLSeconds must be > 0")
	}
	if cfg.Prefix == "" {
		return nil, errors.New("Prefix is required")
	}
	if strings.Contains(cfg.Prefix, ":") {
		return nil, errors.New("Prefix must not contain ':'")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Minter{
		sharedSecret: []byte(cfg.SharedSecret),
		ttlSeconds:   cfg.TTLSeconds,
		prefix:       cfg.Prefix,
		now:          now,
	}, nil
}

// MintFor issues credentials tied to clientID, which ends up as the last
// username segment so coturn logs can be correlated with signaling sessions.
func (m *Minter) MintFor(clientID string) (Credentials, error) {
	if clientID == "" {
		return Credentials{}, errors.New("clientID is required")
	}
	if strings.Contains(clientID, ":") {
		return Credentials{}, errors.New("clientID must not contain ':'")
	}
	expiry := m.now().UTC().Unix() + m.ttlSeconds
	username := fmt.Sprintf("%d:%s:%s", expiry, m.prefix, clientID)
	return Credentials{
		Username:   username,
		Credential: sign(m.sharedSecret, username),
		ExpiryUnix: expiry,
	}, nil
}

// Mint issues credentials with a random client ID, for callers that have not
// identified themselves yet.
func (m *Minter) Mint() (Credentials, error) {
	return m.MintFor(uuid.NewString())
}

func sign(sharedSecret []byte, username string) string {
	mac := hmac.New(sha1.New, sharedSecret)
	_, _ = mac.Write([]byte(username))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

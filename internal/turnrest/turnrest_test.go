package turnrest

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strings"
	"testing"
	"time"
)

func TestMintFor_DeterministicWithFixedTime(t *testing.T) {
	m, err := NewMinter(MinterConfig{
		SharedSecret: "shared-secret",
		TTLSeconds:   3600,
		Prefix:       "peersignal",
		Now:          func() time.Time { return time.Unix(1_700_000_000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("NewMinter: %v", err)
	}

	creds, err := m.MintFor("client123")
	if err != nil {
		t.Fatalf("MintFor: %v", err)
	}

	wantExpiry := int64(1_700_003_600)
	if creds.ExpiryUnix != wantExpiry {
		t.Fatalf("ExpiryUnix: got %d, want %d", creds.ExpiryUnix, wantExpiry)
	}
	wantUsername := "1700003600:peersignal:client123"
	if creds.Username != wantUsername {
		t.Fatalf("Username: got %q, want %q", creds.Username, wantUsername)
	}

	wantCred := expectedCredential(t, []byte("shared-secret"), wantUsername)
	if creds.Credential != wantCred {
		t.Fatalf("Credential: got %q, want %q", creds.Credential, wantCred)
	}
}

func TestMintFor_RejectsColonInClientID(t *testing.T) {
	m, err := NewMinter(MinterConfig{
		SharedSecret: "secret",
		TTLSeconds:   10,
		Prefix:       "pfx",
	})
	if err != nil {
		t.Fatalf("NewMinter: %v", err)
	}
	if _, err := m.MintFor("a:b"); err == nil {
		t.Fatalf("expected error for clientID containing ':'")
	}
}

func TestMint_RandomClientIDHasNoColon(t *testing.T) {
	m, err := NewMinter(MinterConfig{
		SharedSecret: "secret",
		TTLSeconds:   10,
		Prefix:       "pfx",
	})
	if err != nil {
		t.Fatalf("NewMinter: %v", err)
	}

	creds, err := m.Mint()
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	parts := strings.SplitN(creds.Username, ":", 3)
	if len(parts) != 3 {
		t.Fatalf("username %q does not have 3 segments", creds.Username)
	}
	if strings.Contains(parts[2], ":") {
		t.Fatalf("client id segment %q contains ':'", parts[2])
	}
}

func TestMintFor_CredentialBase64AndHMACSHA1(t *testing.T) {
	m, err := NewMinter(MinterConfig{
		SharedSecret: "secret",
		TTLSeconds:   1,
		Prefix:       "pfx",
		Now:          func() time.Time { return time.Unix(0, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("NewMinter: %v", err)
	}

	creds, err := m.MintFor("cid")
	if err != nil {
		t.Fatalf("MintFor: %v", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(creds.Credential)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if len(decoded) != sha1.Size {
		t.Fatalf("decoded length: got %d, want %d", len(decoded), sha1.Size)
	}

	mac := hmac.New(sha1.New, []byte("secret"))
	_, _ = mac.Write([]byte(creds.Username))
	want := mac.Sum(nil)
	if string(decoded) != string(want) {
		t.Fatalf("decoded HMAC mismatch")
	}
}

func expectedCredential(t *testing.T, sharedSecret []byte, username string) string {
	t.Helper()
	mac := hmac.New(sha1.New, sharedSecret)
	_, _ = mac.Write([]byte(username))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

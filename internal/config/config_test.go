package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefaultsDev(t *testing.T) {
	cfg, err := load(func(string) (string, bool) { return "", false }, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeDev {
		t.Fatalf("mode=%q, want %q", cfg.Mode, ModeDev)
	}
	if cfg.LogFormat != LogFormatText {
		t.Fatalf("logFormat=%q, want %q", cfg.LogFormat, LogFormatText)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("logLevel=%v, want debug", cfg.LogLevel)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("ListenAddr=%q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.MaxSessions != 0 {
		t.Fatalf("MaxSessions=%d, want 0 (unlimited)", cfg.MaxSessions)
	}
	if cfg.MaxPeersPerRoom != 0 {
		t.Fatalf("MaxPeersPerRoom=%d, want 0 (unlimited)", cfg.MaxPeersPerRoom)
	}
	if cfg.MaxSignalingMessageBytes != DefaultMaxSignalingMessageBytes {
		t.Fatalf("MaxSignalingMessageBytes=%d, want %d", cfg.MaxSignalingMessageBytes, DefaultMaxSignalingMessageBytes)
	}
	if cfg.SignalingWSIdleTimeout != DefaultSignalingWSIdleTimeout {
		t.Fatalf("SignalingWSIdleTimeout=%v, want %v", cfg.SignalingWSIdleTimeout, DefaultSignalingWSIdleTimeout)
	}
	if len(cfg.ICEServers) != 0 {
		t.Fatalf("expected no ICE servers by default, got %v", cfg.ICEServers)
	}
	if cfg.TURNREST.Enabled() {
		t.Fatalf("expected TURN REST disabled by default")
	}
}

func TestDefaultsProdWhenModeFlagSet(t *testing.T) {
	cfg, err := load(func(string) (string, bool) { return "", false }, []string{"--mode", "prod"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeProd {
		t.Fatalf("mode=%q, want %q", cfg.Mode, ModeProd)
	}
	if cfg.LogFormat != LogFormatJSON {
		t.Fatalf("logFormat=%q, want %q", cfg.LogFormat, LogFormatJSON)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("logLevel=%v, want info", cfg.LogLevel)
	}
}

func TestLogFormatExplicitOverride(t *testing.T) {
	cfg, err := load(func(string) (string, bool) { return "", false }, []string{"--mode", "prod", "--log-format", "text"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogFormat != LogFormatText {
		t.Fatalf("logFormat=%q, want %q", cfg.LogFormat, LogFormatText)
	}
}

func TestQuotaEnvOverrides(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envVarMaxSessions:                   "200",
		envVarMaxPeersPerRoom:               "8",
		envVarMaxSignalingMessageBytes:      "32768",
		envVarMaxSignalingMessagesPerSecond: "10",
	}), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxSessions != 200 {
		t.Fatalf("MaxSessions=%d, want 200", cfg.MaxSessions)
	}
	if cfg.MaxPeersPerRoom != 8 {
		t.Fatalf("MaxPeersPerRoom=%d, want 8", cfg.MaxPeersPerRoom)
	}
	if cfg.MaxSignalingMessageBytes != 32768 {
		t.Fatalf("MaxSignalingMessageBytes=%d, want 32768", cfg.MaxSignalingMessageBytes)
	}
	if cfg.MaxSignalingMessagesPerSecond != 10 {
		t.Fatalf("MaxSignalingMessagesPerSecond=%d, want 10", cfg.MaxSignalingMessagesPerSecond)
	}
}

func TestFlagOverridesEnv(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envVarMaxSessions: "200",
	}), []string{"--max-sessions", "50"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxSessions != 50 {
		t.Fatalf("MaxSessions=%d, want 50", cfg.MaxSessions)
	}
}

func TestPingIntervalMustBeBelowIdleTimeout(t *testing.T) {
	_, err := load(lookupMap(map[string]string{
		envVarSignalingWSIdleTimeout:  "10s",
		envVarSignalingWSPingInterval: "10s",
	}), nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestKeepaliveEnvOverrides(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envVarSignalingWSIdleTimeout:  "2m",
		envVarSignalingWSPingInterval: "30s",
	}), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SignalingWSIdleTimeout != 2*time.Minute {
		t.Fatalf("SignalingWSIdleTimeout=%v, want 2m", cfg.SignalingWSIdleTimeout)
	}
	if cfg.SignalingWSPingInterval != 30*time.Second {
		t.Fatalf("SignalingWSPingInterval=%v, want 30s", cfg.SignalingWSPingInterval)
	}
}

func TestAllowedOrigins_ParsesAndNormalizes(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envVarAllowedOrigins: "https://App.Example.com, http://localhost:3000 ,*",
	}), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"https://app.example.com", "http://localhost:3000", "*"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins=%v, want %v", cfg.AllowedOrigins, want)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("AllowedOrigins[%d]=%q, want %q", i, cfg.AllowedOrigins[i], want[i])
		}
	}
}

func TestAllowedOrigins_RejectsBareHost(t *testing.T) {
	_, err := load(lookupMap(map[string]string{
		envVarAllowedOrigins: "example.com",
	}), nil)
	if err == nil {
		t.Fatalf("expected error for origin without scheme, got nil")
	}
}

func TestTURNREST_RequiresUsernamePrefixWithoutColon(t *testing.T) {
	_, err := load(lookupMap(map[string]string{
		envVarTURNRESTSharedSecret:   "secret",
		envVarTURNRESTUsernamePrefix: "bad:prefix",
	}), nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), envVarTURNRESTUsernamePrefix) {
		t.Fatalf("err=%v, expected mention of %s", err, envVarTURNRESTUsernamePrefix)
	}
}

func TestICEServersJSON_EnvParsed(t *testing.T) {
	cfg, err := load(lookupMap(map[string]string{
		envICEServersJSON: `[{"urls":"stun:stun.l.google.com:19302"}]`,
	}), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.ICEServers) != 1 {
		t.Fatalf("ICEServers=%v, want one entry", cfg.ICEServers)
	}
	if len(cfg.ICEServers[0].URLs) != 1 || cfg.ICEServers[0].URLs[0] != "stun:stun.l.google.com:19302" {
		t.Fatalf("ICEServers[0].URLs=%v", cfg.ICEServers[0].URLs)
	}
}

func TestTurnURLsWithoutCreds_RejectedUnlessTURNREST(t *testing.T) {
	env := map[string]string{
		envTurnURLs: "turn:turn.example.com:3478",
	}
	if _, err := load(lookupMap(env), nil); err == nil {
		t.Fatalf("expected error for TURN URLs without credentials")
	}

	env[envVarTURNRESTSharedSecret] = "secret"
	cfg, err := load(lookupMap(env), nil)
	if err != nil {
		t.Fatalf("load with TURN REST enabled: %v", err)
	}
	if len(cfg.ICEServers) != 1 {
		t.Fatalf("ICEServers=%v, want one TURN entry", cfg.ICEServers)
	}
}

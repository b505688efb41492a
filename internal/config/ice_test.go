package config

import "testing"

func TestParseICEServersJSON_StringOrArrayURLs(t *testing.T) {
	servers, err := ParseICEServersJSON(`[
		{"urls":"stun:stun.example.com:3478"},
		{"urls":["turn:turn.example.com:3478","turns:turn.example.com:5349"],"username":"u","credential":"p"}
	]`, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	if len(servers[1].URLs) != 2 {
		t.Fatalf("servers[1].URLs=%v, want two entries", servers[1].URLs)
	}
	if servers[1].Username != "u" {
		t.Fatalf("servers[1].Username=%q, want %q", servers[1].Username, "u")
	}
}

func TestParseICEServersJSON_RejectsUnknownScheme(t *testing.T) {
	if _, err := ParseICEServersJSON(`[{"urls":"https://example.com"}]`, false); err == nil {
		t.Fatalf("expected error for non-ICE url scheme")
	}
}

func TestParseICEServersJSON_TurnCredsRequired(t *testing.T) {
	raw := `[{"urls":"turn:turn.example.com:3478"}]`
	if _, err := ParseICEServersJSON(raw, false); err == nil {
		t.Fatalf("expected error for TURN server without credentials")
	}
	if _, err := ParseICEServersJSON(raw, true); err != nil {
		t.Fatalf("TURN REST enabled should accept credential-free TURN urls: %v", err)
	}
}

func TestParseICEServersFromConvenienceEnv_StunAndTurn(t *testing.T) {
	servers, err := ParseICEServersFromConvenienceEnv(
		"stun:stun1.example.com, stun:stun2.example.com",
		"turn:turn.example.com:3478",
		"user", "pass",
		false,
	)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("got %d servers, want 2", len(servers))
	}
	if len(servers[0].URLs) != 2 {
		t.Fatalf("stun URLs=%v, want two entries", servers[0].URLs)
	}
	cred, ok := servers[1].Credential.(string)
	if !ok || cred != "pass" {
		t.Fatalf("turn credential=%v, want %q", servers[1].Credential, "pass")
	}
}

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_TELEGRAM_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":4000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Fatalf("unexpected provider: %s", cfg.AI.Provider)
	}
	if cfg.Webex.MeetingDuration != time.Hour {
		t.Fatalf("unexpected meeting duration: %s", cfg.Webex.MeetingDuration)
	}
	if cfg.Counsel.CrisisMarker != DefaultCrisisMarker {
		t.Fatalf("unexpected crisis marker: %s", cfg.Counsel.CrisisMarker)
	}
	if cfg.AI.Temperature == nil || *cfg.AI.Temperature != 0.7 {
		t.Fatalf("unexpected chat temperature: %v", cfg.AI.Temperature)
	}
}

func TestLoadPortVariants(t *testing.T) {
	cases := []struct {
		port string
		want string
	}{
		{port: "8080", want: ":8080"},
		{port: "127.0.0.1:9000", want: "127.0.0.1:9000"},
	}

	for _, tc := range cases {
		t.Setenv("PORT", tc.port)
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load(%s) err: %v", tc.port, err)
		}
		if cfg.Server.Addr != tc.want {
			t.Fatalf("PORT=%s: got %s want %s", tc.port, cfg.Server.Addr, tc.want)
		}
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":           "80 80",
		"AI_PROVIDER":    "claude",
		"AI_TEMPERATURE": "hot",
		"LOG_LEVEL":      "trace",
		"WEBEX_TIMEOUT":  "soon",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestLoadTelegramNeedsChatID(t *testing.T) {
	t.Setenv("LOG_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("LOG_TELEGRAM_CHAT_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation error when chat id is missing")
	}
}

func TestAIConfigEnabled(t *testing.T) {
	cases := []struct {
		name string
		cfg  AIConfig
		want bool
	}{
		{name: "openai with key", cfg: AIConfig{Provider: ProviderOpenAI, Model: "m", APIKey: "k"}, want: true},
		{name: "openai without key", cfg: AIConfig{Provider: ProviderOpenAI, Model: "m"}, want: false},
		{name: "ark with aksk", cfg: AIConfig{Provider: ProviderArk, Model: "m", AccessKey: "a", SecretKey: "s"}, want: true},
		{name: "no model", cfg: AIConfig{Provider: ProviderArk, APIKey: "k"}, want: false},
	}

	for _, tc := range cases {
		if got := tc.cfg.Enabled(); got != tc.want {
			t.Fatalf("%s: Enabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

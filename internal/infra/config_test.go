package infra

import (
	"errors"
	"strings"
	"testing"
	"time"

	"neogen/internal/domain"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REPLICATE_API_TOKEN", "r8_test")
	t.Setenv("REPLICATE_MODEL_VERSION", "abc123")
	t.Setenv("SITE_ORIGIN", "")
	t.Setenv("VERCEL_URL", "")
	t.Setenv("REFERENCE_IMAGES", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("SITE_ORIGIN", "https://neo.example.com/")
	t.Setenv("POLL_INTERVAL_MS", "")
	t.Setenv("POLL_MAX_ATTEMPTS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ReplicateBaseURL != "https://api.replicate.com/v1" {
		t.Fatalf("ReplicateBaseURL mismatch: %q", cfg.ReplicateBaseURL)
	}
	if cfg.PollInterval != 1500*time.Millisecond || cfg.PollMaxAttempts != 45 {
		t.Fatalf("poll defaults mismatch: %s %d", cfg.PollInterval, cfg.PollMaxAttempts)
	}
	if cfg.GuidanceScale != 7 || cfg.InferenceSteps != 20 {
		t.Fatalf("tuning defaults mismatch: %v %d", cfg.GuidanceScale, cfg.InferenceSteps)
	}
	expected := []string{
		"https://neo.example.com/neo1.png",
		"https://neo.example.com/neo2.png",
		"https://neo.example.com/neo3.png",
		"https://neo.example.com/neo4.png",
	}
	if len(cfg.ReferenceImages) != len(expected) {
		t.Fatalf("ReferenceImages mismatch: %#v", cfg.ReferenceImages)
	}
	for i, ref := range expected {
		if cfg.ReferenceImages[i] != ref {
			t.Fatalf("ReferenceImages[%d] = %q, want %q", i, cfg.ReferenceImages[i], ref)
		}
	}
	if len(cfg.TrustedDeliveryHosts) != 1 || cfg.TrustedDeliveryHosts[0] != "replicate.delivery" {
		t.Fatalf("TrustedDeliveryHosts mismatch: %#v", cfg.TrustedDeliveryHosts)
	}
}

func TestLoadConfigVercelURLGetsScheme(t *testing.T) {
	setRequired(t)
	t.Setenv("VERCEL_URL", "neo-git-main.vercel.app")
	t.Setenv("REFERENCE_IMAGES", "/a.png, https://cdn.example.com/b.png")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.SiteOrigin != "https://neo-git-main.vercel.app" {
		t.Fatalf("SiteOrigin mismatch: %q", cfg.SiteOrigin)
	}
	if len(cfg.ReferenceImages) != 2 ||
		cfg.ReferenceImages[0] != "https://neo-git-main.vercel.app/a.png" ||
		cfg.ReferenceImages[1] != "https://cdn.example.com/b.png" {
		t.Fatalf("ReferenceImages mismatch: %#v", cfg.ReferenceImages)
	}
}

func TestLoadConfigReportsAllMissing(t *testing.T) {
	t.Setenv("REPLICATE_API_TOKEN", "")
	t.Setenv("REPLICATE_MODEL_VERSION", "")
	t.Setenv("SITE_ORIGIN", "")
	t.Setenv("VERCEL_URL", "")

	_, err := LoadConfig()
	if !errors.Is(err, domain.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
	for _, name := range []string{"REPLICATE_API_TOKEN", "REPLICATE_MODEL_VERSION", "SITE_ORIGIN"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q does not name %s", err.Error(), name)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SITE_ORIGIN", "http://localhost:3000")
	t.Setenv("POLL_INTERVAL_MS", "250")
	t.Setenv("POLL_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("GUIDANCE_SCALE", "3.5")
	t.Setenv("TRUSTED_DELIVERY_HOSTS", "replicate.delivery, cdn.example.com ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("PollInterval mismatch: %s", cfg.PollInterval)
	}
	if cfg.PollMaxAttempts != 45 {
		t.Fatalf("invalid int should fall back, got %d", cfg.PollMaxAttempts)
	}
	if cfg.GuidanceScale != 3.5 {
		t.Fatalf("GuidanceScale mismatch: %v", cfg.GuidanceScale)
	}
	if len(cfg.TrustedDeliveryHosts) != 2 || cfg.TrustedDeliveryHosts[1] != "cdn.example.com" {
		t.Fatalf("TrustedDeliveryHosts mismatch: %#v", cfg.TrustedDeliveryHosts)
	}
}

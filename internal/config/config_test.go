package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.Timezone != "UTC" || cfg.Theme != "light" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.ElevatedRoles, []string{"CEO"}) {
		t.Errorf("elevated roles = %v", cfg.ElevatedRoles)
	}
}

func TestLoad_ParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "teamcal.yaml")
	data := `
api_url: https://hr.example.com/api/
theme: Dark
log_level: DEBUG
elevated_roles: [CEO, HR]
caldav:
  endpoint: https://dav.example.com/
  calendar: Team
google:
  holiday_calendar: en.usa#holiday@group.v.calendar.google.com
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.APIURL != "https://hr.example.com/api" {
		t.Errorf("api url = %q", cfg.APIURL)
	}
	if cfg.Theme != "dark" || cfg.LogLevel != "debug" {
		t.Errorf("theme/log level = %q/%q", cfg.Theme, cfg.LogLevel)
	}
	if !cfg.CalDAV.Enabled() {
		t.Error("expected caldav to be enabled")
	}
	if cfg.Google.Days != defaultHolidayDays || cfg.Google.StateFile != defaultStateFile {
		t.Errorf("google defaults not applied: %+v", cfg.Google)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api_url: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TEAMCAL_API_URL":        "http://127.0.0.1:9000/",
		"TEAMCAL_ROLE":           "HR",
		"TEAMCAL_ELEVATED_ROLES": "CEO, HR ,",
		"CALDAV_PASSWORD":        "secret",
		"LOG_LEVEL":              "warn",
	}
	cfg := DefaultConfig()
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.APIURL != "http://127.0.0.1:9000" {
		t.Errorf("api url = %q", cfg.APIURL)
	}
	if cfg.Role != "HR" || cfg.CalDAV.Password != "secret" || cfg.LogLevel != "warn" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.ElevatedRoles, []string{"CEO", "HR"}) {
		t.Errorf("elevated roles = %v", cfg.ElevatedRoles)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "teamcal.yaml")
	cfg := DefaultConfig()
	cfg.Role = "CEO"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v", info.Mode().Perm())
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Role != "CEO" {
		t.Errorf("role = %q", got.Role)
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Not/AZone"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for bad timezone")
	}
}

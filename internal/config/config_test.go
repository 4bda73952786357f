package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullYAML = `
database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  user: lms
  password: secret
  name: roadmap_prod

server:
  port: 9090
  base_url: https://lms.example.edu
  cors_origins: ["https://lms.example.edu"]
  icon_cache_seconds: 600

log:
  mode: prod

timezone: America/New_York

color_sets:
  - id: 1
    name: Wolfpack
    colors: ["#CC0000", "#000000", "#FFFFFF"]
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want mysql", cfg.Database.Driver)
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want 10.0.0.5", cfg.Database.Host)
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want 3307", cfg.Database.Port)
	}
	if cfg.Database.User != "lms" {
		t.Errorf("Database.User = %q, want lms", cfg.Database.User)
	}
	if cfg.Database.Name != "roadmap_prod" {
		t.Errorf("Database.Name = %q, want roadmap_prod", cfg.Database.Name)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.BaseURL != "https://lms.example.edu" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if len(cfg.Server.CORSOrigins) != 1 {
		t.Errorf("CORSOrigins = %v, want 1 entry", cfg.Server.CORSOrigins)
	}
	if cfg.Server.IconCacheSeconds != 600 {
		t.Errorf("IconCacheSeconds = %d, want 600", cfg.Server.IconCacheSeconds)
	}
	if cfg.Log.Mode != "prod" {
		t.Errorf("Log.Mode = %q, want prod", cfg.Log.Mode)
	}
	if cfg.Location == nil || cfg.Location.String() != "America/New_York" {
		t.Errorf("Location = %v, want America/New_York", cfg.Location)
	}
	if len(cfg.ColorSets) != 1 || cfg.ColorSets[0].Name != "Wolfpack" {
		t.Errorf("ColorSets = %+v", cfg.ColorSets)
	}
}

func TestParse_EmptyUsesSqliteDefaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "roadmap.db" {
		t.Errorf("Path = %q, want roadmap.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.IconCacheSeconds != 3600 {
		t.Errorf("IconCacheSeconds = %d, want 3600", cfg.Server.IconCacheSeconds)
	}
	if cfg.Log.Mode != "dev" {
		t.Errorf("Log.Mode = %q, want dev", cfg.Log.Mode)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want UTC", cfg.Timezone)
	}
}

func TestParse_DriverDefaults(t *testing.T) {
	tests := []struct {
		driver   string
		wantPort int
		wantUser string
	}{
		{"mysql", 3306, "root"},
		{"postgres", 5432, "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg, err := Parse([]byte("database:\n  driver: " + tt.driver + "\n"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Database.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", cfg.Database.Port, tt.wantPort)
			}
			if cfg.Database.User != tt.wantUser {
				t.Errorf("User = %q, want %q", cfg.Database.User, tt.wantUser)
			}
			if cfg.Database.Host != "127.0.0.1" {
				t.Errorf("Host = %q, want 127.0.0.1", cfg.Database.Host)
			}
		})
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown driver",
			yaml: "database:\n  driver: oracle\n",
			want: "database.driver must be one of",
		},
		{
			name: "unknown log mode",
			yaml: "log:\n  mode: verbose\n",
			want: "log.mode must be one of",
		},
		{
			name: "bad timezone",
			yaml: "timezone: Mars/Olympus\n",
			want: `timezone "Mars/Olympus" is invalid`,
		},
		{
			name: "bad color",
			yaml: "color_sets:\n  - id: 2\n    name: x\n    colors: [\"blue\"]\n",
			want: "is not a hex color",
		},
		{
			name: "reserved palette id",
			yaml: "color_sets:\n  - id: 0\n    name: x\n    colors: [\"#fff\"]\n",
			want: "color_sets[0].id fails gt=0",
		},
		{
			name: "duplicate palette id",
			yaml: "color_sets:\n  - id: 3\n    name: a\n    colors: [\"#fff\"]\n  - id: 3\n    name: b\n    colors: [\"#000\"]\n",
			want: "color_sets[1].id 3 is duplicated",
		},
		{
			name: "palette without name",
			yaml: "color_sets:\n  - id: 4\n    colors: [\"#fff\"]\n",
			want: "color_sets[0].name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), "config: validation failed") {
				t.Errorf("error = %q, want validation prefix", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to contain %q", err, tt.want)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("database: [unterminated"))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roadmap.yaml")
	if err := os.WriteFile(path, []byte(fullYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Name != "roadmap_prod" {
		t.Errorf("Database.Name = %q", cfg.Database.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q, want config: read prefix", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Location == nil {
		t.Error("Location is nil")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageBackend != BackendSQLite {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, BackendSQLite)
	}
	if cfg.WebPort != 7433 {
		t.Errorf("WebPort = %d, want 7433", cfg.WebPort)
	}
	if cfg.WebBind != "127.0.0.1" {
		t.Errorf("WebBind = %q, want 127.0.0.1", cfg.WebBind)
	}
}

func TestLoad_OverridesFromJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"storage_backend": "badger", "web_port": 9000}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.StorageBackend != BackendBadger {
		t.Errorf("StorageBackend = %q, want %q", cfg.StorageBackend, BackendBadger)
	}
	if cfg.WebPort != 9000 {
		t.Errorf("WebPort = %d, want 9000", cfg.WebPort)
	}
	// Untouched scalar keeps default
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_OverridesFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "log_level: debug\ndisabled_tools:\n  - library_import\n")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "library_import" {
		t.Errorf("DisabledTools = %v, want [library_import]", cfg.DisabledTools)
	}
}

func TestLoad_JSONPreferredOverYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"log_level": "warn"}`)
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "log_level: debug\n")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (json wins)", cfg.LogLevel)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.yaml"), "log_level: [unclosed\n")

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "config.json"), `{"log_level": "warn"}`)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvStorageBackend, "badger")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (env wins)", cfg.LogLevel)
	}
	if cfg.StorageBackend != "badger" {
		t.Errorf("StorageBackend = %q, want badger", cfg.StorageBackend)
	}
}

func TestLoadEnv_DoesNotOverrideExisting(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, ".env"), "PROMPTDECK_LOG_LEVEL=debug\nPROMPTDECK_TEST_ONLY=from-dotenv\n")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv("PROMPTDECK_TEST_ONLY", "")
	os.Unsetenv("PROMPTDECK_TEST_ONLY")

	LoadEnv(tmpDir)

	if got := os.Getenv(EnvLogLevel); got != "warn" {
		t.Errorf("%s = %q, want warn (existing env preserved)", EnvLogLevel, got)
	}
	if got := os.Getenv("PROMPTDECK_TEST_ONLY"); got != "from-dotenv" {
		t.Errorf("PROMPTDECK_TEST_ONLY = %q, want from-dotenv", got)
	}
	os.Unsetenv("PROMPTDECK_TEST_ONLY")
}

func TestBaseDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvHome, "/tmp/deck-home")

	dir, err := BaseDir()
	if err != nil {
		t.Fatalf("BaseDir() error = %v", err)
	}
	if dir != "/tmp/deck-home" {
		t.Errorf("BaseDir() = %q, want /tmp/deck-home", dir)
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeFile(t, filepath.Join(globalDir, "config.json"), `{"web_port": 8000, "disabled_tools": ["library_import"]}`)
	writeFile(t, filepath.Join(repoRoot, DirName, "config.json"), `{"web_port": 8100, "disabled_tools": ["prompt_delete"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.WebPort != 8100 {
		t.Errorf("WebPort = %d, want 8100 (repo override)", cfg.WebPort)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools = %v, want 2 merged entries", cfg.DisabledTools)
	}
	if cfg.DisabledTools[0] != "library_import" || cfg.DisabledTools[1] != "prompt_delete" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()
	nested := filepath.Join(repoRoot, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	writeFile(t, filepath.Join(repoRoot, DirName, "config.yaml"), "allow_unsafe_paths: true\n")

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if !cfg.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true from repo config")
	}
}

func TestFindRepoConfig_FindsYAML(t *testing.T) {
	root := t.TempDir()
	want := filepath.Join(root, DirName, "config.yml")
	writeFile(t, want, "log_level: warn\n")

	if got := FindRepoConfig(root); got != want {
		t.Errorf("FindRepoConfig() = %q, want %q", got, want)
	}
}

func TestMerge(t *testing.T) {
	base := &Config{
		StorageBackend: BackendSQLite,
		DBMaxOpenConns: 4,
		AllowedPaths:   []string{"/a", " /b "},
		CORSOrigins:    []string{"chrome-extension://*"},
	}
	overlay := &Config{
		DBMaxIdleConns:   2,
		AllowUnsafePaths: true,
		AllowedPaths:     []string{"/b", "/c", ""},
		CORSOrigins:      []string{"http://localhost:5173"},
	}

	got := Merge(base, overlay)

	if got.StorageBackend != BackendSQLite {
		t.Errorf("StorageBackend = %q", got.StorageBackend)
	}
	if got.DBMaxOpenConns != 4 || got.DBMaxIdleConns != 2 {
		t.Errorf("pool = %d/%d, want 4/2", got.DBMaxOpenConns, got.DBMaxIdleConns)
	}
	if !got.AllowUnsafePaths {
		t.Error("AllowUnsafePaths = false, want true")
	}
	want := []string{"/a", "/b", "/c"}
	if len(got.AllowedPaths) != len(want) {
		t.Fatalf("AllowedPaths = %v, want %v", got.AllowedPaths, want)
	}
	for i := range want {
		if got.AllowedPaths[i] != want[i] {
			t.Errorf("AllowedPaths[%d] = %q, want %q", i, got.AllowedPaths[i], want[i])
		}
	}
	if len(got.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", got.CORSOrigins)
	}
}

func TestMergeStringSlice_EmptyReturnsNil(t *testing.T) {
	if got := mergeStringSlice(nil, []string{" ", ""}); got != nil {
		t.Errorf("mergeStringSlice() = %v, want nil", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"PORT", "STORAGE_ROOT", "LOG_FORWARD_TARGET", "MAX_UPLOAD_BYTES", "OBJECT_STORE", "LOG_DIR"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected port 3000, got %q", cfg.Port)
	}
	if cfg.StorageRoot != "./upload" || cfg.ObjectStoreType != "local" {
		t.Fatalf("unexpected storage config %+v", cfg)
	}
	if cfg.LogForwardTarget != ForwardToFrontend {
		t.Fatalf("expected frontend target, got %q", cfg.LogForwardTarget)
	}
	if cfg.MaxUploadBytes != 32<<20 {
		t.Fatalf("unexpected MaxUploadBytes %d", cfg.MaxUploadBytes)
	}
	if cfg.ServerLogPath() != filepath.Join("logs", "server.log") || cfg.ForwardLogPath() != filepath.Join("logs", "frontend.log") {
		t.Fatalf("unexpected log paths %q %q", cfg.ServerLogPath(), cfg.ForwardLogPath())
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOG_FORWARD_TARGET", "SERVER")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("UPLOAD_RATE_LIMIT_RPS", "0.5")
	t.Setenv("UPLOAD_RATE_LIMIT_BURST", "3")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")

	cfg := Load()
	if cfg.LogForwardTarget != ForwardToServer {
		t.Fatalf("expected server target, got %q", cfg.LogForwardTarget)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3, got %q", cfg.ObjectStoreType)
	}
	if cfg.MaxUploadBytes != 1024 || cfg.UploadRateLimitRPS != 0.5 || cfg.UploadRateLimitBurst != 3 {
		t.Fatalf("unexpected numeric config %+v", cfg)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
	if !cfg.S3ForcePathStyle {
		t.Fatalf("expected path-style S3 addressing")
	}
}

func TestInvalidForwardTargetFallsBack(t *testing.T) {
	if got := normalizeForwardTarget("elsewhere"); got != ForwardToFrontend {
		t.Fatalf("expected fallback to frontend, got %q", got)
	}
}

func TestLoadEnvFilesDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport DOCSTORE_TEST_A=\"from file\"\nDOCSTORE_TEST_B='b'\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DOCSTORE_TEST_B", "from env")
	t.Setenv("DOCSTORE_TEST_A", "")
	os.Unsetenv("DOCSTORE_TEST_A")

	loadEnvFiles(path)
	t.Cleanup(func() { os.Unsetenv("DOCSTORE_TEST_A") })

	if got := os.Getenv("DOCSTORE_TEST_A"); got != "from file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("DOCSTORE_TEST_B"); got != "from env" {
		t.Fatalf("expected env to win, got %q", got)
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			panic("chdir: " + err.Error())
		}
	})
}

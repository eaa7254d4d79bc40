package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "127.0.0.1:8080")
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "memory")
	}
	if cfg.Admission.DefaultLimit != 100 {
		t.Errorf("DefaultLimit = %d, want 100", cfg.Admission.DefaultLimit)
	}
	if cfg.Admission.IPLimit != 100 {
		t.Errorf("IPLimit = %d, want 100", cfg.Admission.IPLimit)
	}
	if cfg.Admission.UserLimit != 1000 {
		t.Errorf("UserLimit = %d, want 1000", cfg.Admission.UserLimit)
	}
	if cfg.Limits.MaxBodyBytes != 10*1024*1024 {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.Limits.MaxBodyBytes, 10*1024*1024)
	}
}

func TestConfig_SetDefaults_Durations(t *testing.T) {
	t.Parallel()

	// Defaults are applied when empty
	var cfg Config
	cfg.SetDefaults()

	if cfg.Admission.Window != "60s" {
		t.Errorf("Window default: got %q, want %q", cfg.Admission.Window, "60s")
	}
	if cfg.Admission.Grace != "10s" {
		t.Errorf("Grace default: got %q, want %q", cfg.Admission.Grace, "10s")
	}
	if cfg.Admission.StoreTimeout != "1s" {
		t.Errorf("StoreTimeout default: got %q, want %q", cfg.Admission.StoreTimeout, "1s")
	}
	if cfg.Egress.LookupTimeout != "1s" {
		t.Errorf("LookupTimeout default: got %q, want %q", cfg.Egress.LookupTimeout, "1s")
	}
	if cfg.Server.ShutdownTimeout != "10s" {
		t.Errorf("ShutdownTimeout default: got %q, want %q", cfg.Server.ShutdownTimeout, "10s")
	}

	// Custom values are preserved
	cfg2 := Config{
		Admission: AdmissionConfig{Window: "30s", Grace: "5s"},
	}
	cfg2.SetDefaults()

	if cfg2.Admission.Window != "30s" {
		t.Errorf("Window custom: got %q, want %q", cfg2.Admission.Window, "30s")
	}
	if cfg2.Admission.Grace != "5s" {
		t.Errorf("Grace custom: got %q, want %q", cfg2.Admission.Grace, "5s")
	}
}

func TestConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Server: ServerConfig{
			HTTPAddr: ":9090",
		},
		Storage: StorageConfig{
			Backend: "redis",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Admission: AdmissionConfig{
			DefaultLimit: 50,
			UserLimit:    500,
		},
	}

	cfg.SetDefaults()

	// Existing values should be preserved
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr was overwritten: got %q, want %q", cfg.Server.HTTPAddr, ":9090")
	}
	if cfg.Storage.Backend != "redis" {
		t.Errorf("Backend was overwritten: got %q, want %q", cfg.Storage.Backend, "redis")
	}
	if cfg.Admission.DefaultLimit != 50 {
		t.Errorf("DefaultLimit was overwritten: got %d, want 50", cfg.Admission.DefaultLimit)
	}
	if cfg.Admission.UserLimit != 500 {
		t.Errorf("UserLimit was overwritten: got %d, want 500", cfg.Admission.UserLimit)
	}
}

func TestConfig_SetDefaults_EgressParamKeys(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	want := []string{"url", "link", "redirect", "callback"}
	if len(cfg.Egress.URLParamKeys) != len(want) {
		t.Fatalf("URLParamKeys = %v, want %v", cfg.Egress.URLParamKeys, want)
	}
	for i, k := range want {
		if cfg.Egress.URLParamKeys[i] != k {
			t.Errorf("URLParamKeys[%d] = %q, want %q", i, cfg.Egress.URLParamKeys[i], k)
		}
	}

	// The allow-list must NOT get a default: empty means default-deny.
	if len(cfg.Egress.AllowedDomains) != 0 {
		t.Errorf("AllowedDomains should stay empty, got %v", cfg.Egress.AllowedDomains)
	}
}

func TestConfig_SetDefaults_Admin(t *testing.T) {
	t.Parallel()

	var cfg Config
	cfg.SetDefaults()

	if !cfg.Admin.Enabled {
		t.Error("Admin.Enabled should default to true")
	}
	if cfg.Admin.Rate != 60 {
		t.Errorf("Admin.Rate = %d, want 60", cfg.Admin.Rate)
	}
	if cfg.Admin.Burst != 10 {
		t.Errorf("Admin.Burst = %d, want 10", cfg.Admin.Burst)
	}
}

func TestConfig_SetDevDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{DevMode: true}
	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if len(cfg.Egress.AllowedDomains) == 0 {
		t.Error("dev mode should seed the egress allow-list")
	}
	if cfg.Admin.APIKeyHash == "" {
		t.Error("dev mode should seed an admin API key hash")
	}

	// Outside dev mode nothing is seeded.
	cfg2 := Config{}
	cfg2.SetDefaults()
	cfg2.SetDevDefaults()

	if len(cfg2.Egress.AllowedDomains) != 0 {
		t.Errorf("non-dev AllowedDomains = %v, want empty", cfg2.Egress.AllowedDomains)
	}
	if cfg2.Admin.APIKeyHash != "" {
		t.Errorf("non-dev APIKeyHash = %q, want empty", cfg2.Admin.APIKeyHash)
	}
}

func TestConfig_SetDevDefaults_PreservesExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		DevMode: true,
		Egress:  EgressConfig{AllowedDomains: []string{"api.internal.example"}},
		Admin:   AdminConfig{APIKeyHash: "sha256:deadbeef"},
	}
	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if len(cfg.Egress.AllowedDomains) != 1 || cfg.Egress.AllowedDomains[0] != "api.internal.example" {
		t.Errorf("AllowedDomains was overwritten: got %v", cfg.Egress.AllowedDomains)
	}
	if cfg.Admin.APIKeyHash != "sha256:deadbeef" {
		t.Errorf("APIKeyHash was overwritten: got %q", cfg.Admin.APIKeyHash)
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths(empty dir) = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_MatchesYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "admission-gate.yaml")
	_ = os.WriteFile(cfgPath, []byte("server:\n  http_addr: :9090\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_MatchesYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "admission-gate.yml")
	_ = os.WriteFile(cfgPath, []byte("server:\n  http_addr: :9090\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Simulate the binary: a file named "admission-gate" with no extension
	_ = os.WriteFile(filepath.Join(dir, "admission-gate"), []byte("\x7fELF binary"), 0755)

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths matched binary = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_PrefersYAMLOverYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "admission-gate.yaml")
	ymlPath := filepath.Join(dir, "admission-gate.yml")
	_ = os.WriteFile(yamlPath, []byte("server:\n  http_addr: :8080\n"), 0644)
	_ = os.WriteFile(ymlPath, []byte("server:\n  http_addr: :9090\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != yamlPath {
		t.Errorf("findConfigFileInPaths = %q, want %q (.yaml preferred)", got, yamlPath)
	}
}

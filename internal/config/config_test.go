package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cmakedoc.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SourceDir != "docs" || cfg.OutputDir != "build" {
		t.Errorf("dirs = %q, %q", cfg.SourceDir, cfg.OutputDir)
	}
	if cfg.CMakeModulesAddExtension {
		t.Error("cmake_modules_add_extension should default to false")
	}
	if !cfg.AddFunctionParentheses {
		t.Error("add_function_parentheses should default to true")
	}
	if !cfg.HTMLDomainIndices {
		t.Error("html_domain_indices should default to true")
	}
	if len(cfg.CMakeIndexCommonPrefix) != 0 {
		t.Errorf("prefixes = %v", cfg.CMakeIndexCommonPrefix)
	}
	if cfg.CMakeIndexDuplicates != "list-both" {
		t.Errorf("duplicates = %q", cfg.CMakeIndexDuplicates)
	}
}

func TestLoad_Values(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
source_dir = "manual"
output_dir = "out"
cmake_modules_add_extension = true
cmake_index_common_prefix = ["MY_", "MY_PROJ_"]
add_function_parentheses = false
cmake_index_duplicates = "last-wins"
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.SourceDir != "manual" || cfg.OutputDir != "out" {
		t.Errorf("dirs = %q, %q", cfg.SourceDir, cfg.OutputDir)
	}
	if !cfg.CMakeModulesAddExtension || cfg.AddFunctionParentheses {
		t.Error("decoration flags not applied")
	}
	if len(cfg.CMakeIndexCommonPrefix) != 2 {
		t.Errorf("prefixes = %v", cfg.CMakeIndexCommonPrefix)
	}

	opts := cfg.Display()
	if opts.FunctionParens || !opts.ModuleExtension {
		t.Errorf("display = %+v", opts)
	}
}

func TestLoad_BadDuplicatePolicy(t *testing.T) {
	if _, err := Load(writeConfig(t, `cmake_index_duplicates = "maybe"`)); err == nil {
		t.Fatal("expected error for unknown duplicate policy")
	}
}

func TestLoad_EmptyPrefix(t *testing.T) {
	if _, err := Load(writeConfig(t, `cmake_index_common_prefix = ["MY_", ""]`)); err == nil {
		t.Fatal("expected error for empty prefix")
	}
}

func TestLoad_TypeErrorIsFatal(t *testing.T) {
	// A malformed project setup must fail loudly, not degrade.
	if _, err := Load(writeConfig(t, `cmake_index_common_prefix = "MY_"`)); err == nil {
		t.Fatal("expected error for wrongly typed prefix list")
	}
}

func TestStatePaths(t *testing.T) {
	cfg := &Config{OutputDir: "out"}
	if got := cfg.StateDir(); got != filepath.Join("out", ".cmakedoc") {
		t.Errorf("StateDir = %q", got)
	}
	if got := cfg.DBPath(); got != filepath.Join("out", ".cmakedoc", "env.db") {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.CASDir(); got != filepath.Join("out", ".cmakedoc", "cas") {
		t.Errorf("CASDir = %q", got)
	}
}

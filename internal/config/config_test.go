package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaultConfig(t *testing.T) {
	t.Setenv("LIBROS_DATA", t.TempDir())

	opts, err := GetConfig()
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}

	t.Logf(`Config
		APIURL: %s
		PageSize: %d
		DSN: %s
		LogLevel: %s
		Data: %s
		`, opts.APIURL, opts.PageSize, opts.DSN, opts.LogLevel, opts.Data)

	if opts.APIURL != defaultAPIURL {
		t.Errorf("api_url incorrect")
	}
	if opts.PageSize != defaultPageSize {
		t.Errorf("page_size incorrect")
	}
	if opts.DSN != filepath.Join(opts.Data, "libros.db") {
		t.Errorf("dsn not derived from data folder: %s", opts.DSN)
	}
	if Opts != opts {
		t.Errorf("global options not updated")
	}
}

func TestLoadConfigFile(t *testing.T) {
	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	t.Logf(`Config
		APIURL: %s
		PageSize: %d
		LogLevel: %s
		LogFile: %s
		`, opts.APIURL, opts.PageSize, opts.LogLevel, opts.LogFile)
	if opts.APIURL != "http://127.0.0.1:2333/api" {
		t.Errorf("api_url incorrect")
	}
	if opts.LogFile != "test.log" {
		t.Errorf("log_file incorrect")
	}
	if opts.PageSize != 25 {
		t.Errorf("page_size incorrect")
	}
	if opts.LogLevel != "debug" {
		t.Errorf("log_level incorrect")
	}
	if opts.Sort != defaultSort {
		t.Errorf("sort should keep its default")
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("LIBROS_PAGE_SIZE", "7")
	t.Setenv("LIBROS_API_URL", "https://books.example.com/api")

	opts, err := ParseFile("config_test.toml")
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	if opts.PageSize != 7 {
		t.Errorf("page_size = %d, want 7", opts.PageSize)
	}
	if opts.APIURL != "https://books.example.com/api" {
		t.Errorf("api_url = %s", opts.APIURL)
	}
}

func TestParseMissingFile(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

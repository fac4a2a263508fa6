package cli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/itzkitb/DankTables/internal/cli"
)

func Test_LoadConfig_Uses_Defaults_When_No_Files_Exist(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDir: workDir,
		Env:     map[string]string{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TableDir != workDir {
		t.Fatalf("TableDir = %q, want %q", cfg.TableDir, workDir)
	}

	if cfg.Sources.Global != "" || cfg.Sources.Project != "" {
		t.Fatalf("sources = %+v, want none", cfg.Sources)
	}
}

func Test_LoadConfig_Reads_HuJSON_When_Project_File_Has_Comments(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	content := `{
		// tables live here
		"table_dir": "tables",
		"cache_capacity": 7, // trailing comma below
		"lock_files": true,
	}`

	err := os.WriteFile(filepath.Join(workDir, cli.ConfigFileName), []byte(content), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDir: workDir,
		Env:     map[string]string{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TableDir != filepath.Join(workDir, "tables") {
		t.Fatalf("TableDir = %q", cfg.TableDir)
	}

	if cfg.CacheCapacity != 7 {
		t.Fatalf("CacheCapacity = %d, want 7", cfg.CacheCapacity)
	}

	if !cfg.LockFiles {
		t.Fatal("LockFiles should be true")
	}

	if cfg.Sources.Project == "" {
		t.Fatal("project source should be recorded")
	}
}

func Test_LoadConfig_Prefers_Project_Over_Global_When_Both_Set(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	xdg := t.TempDir()

	globalDir := filepath.Join(xdg, "danktables")

	err := os.MkdirAll(globalDir, 0o755)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(filepath.Join(globalDir, "config.json"),
		[]byte(`{"table_dir": "/global/tables", "separator": "|"}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(filepath.Join(workDir, cli.ConfigFileName),
		[]byte(`{"table_dir": "/project/tables"}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDir: workDir,
		Env:     map[string]string{"XDG_CONFIG_HOME": xdg},
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TableDir != "/project/tables" {
		t.Fatalf("TableDir = %q, want project override", cfg.TableDir)
	}

	// Global settings not overridden by the project file still apply.
	if cfg.Separator != "|" {
		t.Fatalf("Separator = %q, want global %q", cfg.Separator, "|")
	}
}

func Test_LoadConfig_Fails_When_Explicit_Config_Is_Missing(t *testing.T) {
	t.Parallel()

	_, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDir:    t.TempDir(),
		ConfigPath: "nope.json",
		Env:        map[string]string{},
	})
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func Test_LoadConfig_Applies_Flag_Override_When_Table_Dir_Given(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()

	cfg, err := cli.LoadConfig(cli.LoadConfigInput{
		WorkDir:          workDir,
		TableDirOverride: "/override",
		Env:              map[string]string{},
	})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TableDir != "/override" {
		t.Fatalf("TableDir = %q, want /override", cfg.TableDir)
	}
}

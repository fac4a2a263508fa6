package cli_test

import (
	"strings"
	"testing"

	"github.com/itzkitb/DankTables/internal/cli"
)

// runCLI invokes the CLI with captured output, rooted in dir.
func runCLI(t *testing.T, dir string, args ...string) (int, string, string) {
	t.Helper()

	var out, errOut strings.Builder

	argv := append([]string{"danktables", "-C", dir}, args...)
	code := cli.Run(strings.NewReader(""), &out, &errOut, argv, map[string]string{})

	return code, out.String(), errOut.String()
}

func Test_Run_Prints_Usage_When_No_Command_Given(t *testing.T) {
	t.Parallel()

	code, out, _ := runCLI(t, t.TempDir())

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(out, "Usage: danktables") {
		t.Fatalf("output missing usage:\n%s", out)
	}
}

func Test_Run_Fails_When_Command_Is_Unknown(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, t.TempDir(), "frobnicate")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(errOut, "unknown command") {
		t.Fatalf("stderr missing diagnosis:\n%s", errOut)
	}
}

func Test_Run_Round_Trips_Data_When_Driven_End_To_End(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "create", "users", "-r", "id,name", "-k", "id")
	if code != 0 {
		t.Fatalf("create failed: %s", errOut)
	}

	code, _, errOut = runCLI(t, dir, "add", "users", "id=1", "name=alice")
	if code != 0 {
		t.Fatalf("add failed: %s", errOut)
	}

	code, out, errOut := runCLI(t, dir, "get", "users", "1", "name")
	if code != 0 {
		t.Fatalf("get failed: %s", errOut)
	}

	if strings.TrimSpace(out) != `"alice"` {
		t.Fatalf("get output = %q, want %q", strings.TrimSpace(out), `"alice"`)
	}
}

func Test_Run_Reports_Schema_Error_When_Key_Row_Missing(t *testing.T) {
	t.Parallel()

	code, _, errOut := runCLI(t, t.TempDir(), "create", "users", "-r", "name", "-k", "id")

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(errOut, "key row") {
		t.Fatalf("stderr = %q, want key row diagnostic", errOut)
	}
}

func Test_Run_Lists_Rows_When_Table_Exists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	code, _, errOut := runCLI(t, dir, "create", "users", "-r", "id,name,email")
	if code != 0 {
		t.Fatalf("create failed: %s", errOut)
	}

	code, out, errOut := runCLI(t, dir, "rows", "users")
	if code != 0 {
		t.Fatalf("rows failed: %s", errOut)
	}

	want := "id (key)\nname\nemail\n"
	if out != want {
		t.Fatalf("rows output = %q, want %q", out, want)
	}
}

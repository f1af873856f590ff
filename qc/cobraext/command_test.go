package cobraext

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const usersFile = `get users limit=5
route path=/users method=GET
route path=/admin method=$m
`

const healthFile = `route path=/health
set --force
`

// writeTree creates a directory with two .qc files and one ignored file.
func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"users.qc":       usersFile,
		"nested/more.qc": healthFile,
		"notes.txt":      "not ( qc",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCollectFiles(t *testing.T) {
	dir := writeTree(t)

	files, err := collectFiles([]string{dir}, []string{"qc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		filepath.Join(dir, "nested", "more.qc"),
		filepath.Join(dir, "users.qc"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("expected %v, got %v", want, files)
	}

	explicit := filepath.Join(dir, "notes.txt")
	files, err = collectFiles([]string{explicit, stdinPath}, []string{".qc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(files, []string{explicit, stdinPath}) {
		t.Errorf("explicit files must be kept, got %v", files)
	}

	files, err = collectFiles([]string{dir}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("no extensions should keep all 3 files, got %v", files)
	}

	if _, err := collectFiles([]string{filepath.Join(dir, "missing")}, nil); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestCollectFiles_Duplicates(t *testing.T) {
	dir := writeTree(t)
	users := filepath.Join(dir, "users.qc")

	files, err := collectFiles([]string{stdinPath, users, dir, stdinPath, dir + string(filepath.Separator)}, []string{"qc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{stdinPath, users, filepath.Join(dir, "nested", "more.qc")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("expected %v, got %v", want, files)
	}
}

func TestFmtCommand_StdinTwice(t *testing.T) {
	out, err := run(t, FmtCommand(NewEnv()), "cmd a", "-", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "cmd a\n" {
		t.Errorf("stdin must be read once, got %q", out)
	}
}

func TestFmtCommand(t *testing.T) {
	out, err := run(t, FmtCommand(NewEnv()), "cmd   a=1  b=\"x\"\n  c\nother", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "cmd a=1 b=x c\nother\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestFmtCommand_MultipleFiles(t *testing.T) {
	dir := writeTree(t)
	env := NewEnv()
	env.Jobs = 1

	out, err := run(t, FmtCommand(env), "", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"# " + filepath.Join(dir, "users.qc"),
		"route path=/admin method=$m",
		"set --force",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "more.qc") > strings.Index(out, "users.qc") {
		t.Error("files must be printed in walk order")
	}
}

func TestFmtCommand_ParseErrorNamesFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.qc")
	if err := os.WriteFile(bad, []byte("cmd f(a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, FmtCommand(NewEnv()), "", bad)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.HasPrefix(err.Error(), bad+": parse error at 1:6") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDumpCommand_Expr(t *testing.T) {
	out, err := run(t, DumpCommand(NewEnv()), "", "-e", "a | b c=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Steps []struct {
			Command string `json:"command"`
		} `json:"steps"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(got.Steps) != 2 || got.Steps[1].Command != "b" {
		t.Errorf("unexpected dump: %s", out)
	}
}

func TestDumpCommand_FilesYAML(t *testing.T) {
	out, err := run(t, DumpCommand(NewEnv()), "set name=x", "-", "--format", "yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"path:", "command: set", "text: x"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDumpCommand_Errors(t *testing.T) {
	if _, err := run(t, DumpCommand(NewEnv()), ""); err == nil || !strings.Contains(err.Error(), "requires a path or --expr") {
		t.Errorf("expected missing input error, got %v", err)
	}
	if _, err := run(t, DumpCommand(NewEnv()), "", "-e", "a", "--format", "xml"); err == nil || !strings.Contains(err.Error(), `unknown format "xml"`) {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestQueryCommand(t *testing.T) {
	dir := writeTree(t)

	out, err := run(t, QueryCommand(NewEnv()), "", "route path=*", dir, "--sort", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "route\troute path=/admin method=$m\n" +
		"route\troute path=/health\n" +
		"route\troute path=/users method=GET\n"
	if out != want {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestQueryCommand_Params(t *testing.T) {
	dir := writeTree(t)

	out, err := run(t, QueryCommand(NewEnv()), "",
		"route method=$want", dir, "-p", "want=post", "-p", "m=POST", "--fields", "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "route path=/admin method=POST\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestQueryCommand_CountJSON(t *testing.T) {
	dir := writeTree(t)

	out, err := run(t, QueryCommand(NewEnv()), "", "*", dir, "--count", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []commandCount
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	want := []commandCount{{"route", 3}, {"set", 1}, {"get", 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestQueryCommand_Paginate(t *testing.T) {
	dir := writeTree(t)

	out, err := run(t, QueryCommand(NewEnv()), "", "route", dir, "--sort", "-tags,text", "--skip", "1", "--take", "1", "--fields", "tags,command")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "3\troute\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestQueryCommand_Errors(t *testing.T) {
	dir := writeTree(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad pattern", []string{"route (", dir}, "pattern: parse error"},
		{"bad param", []string{"route", dir, "-p", "novalue"}, `invalid parameter "novalue"`},
		{"param is not a value", []string{"route", dir, "-p", "x=$y"}, "parameter x: parse error"},
		{"unknown field", []string{"route", dir, "--fields", "owner"}, "unknown field: owner"},
		{"unknown sort", []string{"route", dir, "--sort", "owner"}, `field "owner" is not sortable`},
		{"negative skip", []string{"route", dir, "--skip=-1"}, "skip must be >= 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, QueryCommand(NewEnv()), "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestTokensCommand(t *testing.T) {
	out, err := run(t, TokensCommand(NewEnv()), "a=1", "-")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 tokens, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[2], "1:3\t") || !strings.Contains(lines[2], "integer") {
		t.Errorf("unexpected integer line: %q", lines[2])
	}
}

func TestTokensCommand_JSONAll(t *testing.T) {
	out, err := run(t, TokensCommand(NewEnv()), "a b", "-", "--all", "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var views []tokenView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, out)
	}
	if len(views) != 3 || views[1].Text != " " {
		t.Errorf("expected whitespace token in the middle, got %+v", views)
	}
}

func TestAddCommands(t *testing.T) {
	root := &cobra.Command{Use: "qcdump"}
	AddCommands(root, NewEnv())

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	if !reflect.DeepEqual(names, []string{"dump", "fmt", "query", "tokens"}) {
		t.Errorf("unexpected commands: %v", names)
	}
}

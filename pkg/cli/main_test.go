package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nimburion/i18nloader/pkg/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// catalogRoot lays out Foo as a single i18n.json and Bar as per-language files.
func catalogRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Foo", "i18n.json"), `{
  "en": {"greeting": "Hello", "farewell": "Bye"},
  "fr": {"greeting": "Bonjour"},
  "de": {"greeting": "Hallo"}
}`)
	writeFile(t, filepath.Join(root, "Bar", "i18n", "en.json"), `{"title": "Bar"}`)
	writeFile(t, filepath.Join(root, "Bar", "i18n", "pt-br.yaml"), "title: Barra\n")
	return root
}

func writeConfig(t *testing.T, root, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, `loader:
  namespace: test-
ambient:
  content_language: en
  user_language: fr
storage:
  type: memory
source:
  type: dir
  dir:
    root: `+root+`
observability:
  log_level: error
`+extra)
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewCommand(CommandOptions{Name: "i18nloader-test"})
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewCommand_RegistersSubcommands(t *testing.T) {
	cmd := NewCommand(CommandOptions{})
	if cmd.Use != "i18nloader" {
		t.Fatalf("expected default name, got %q", cmd.Use)
	}
	for _, name := range []string{"version", "messages", "normalize", "resolve", "sweep", "serve", "publish", "healthcheck", "config"} {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Fatalf("subcommand %s not registered: %v", name, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "Service:    i18nloader-test") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNormalizeCommand(t *testing.T) {
	out, _, err := runCommand(t, "normalize", "zh-tw", "de_formal", "be-x-old")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := "zh-tw\tzh-Hant-TW\nde_formal\tde-x-formal\nbe-x-old\tbe-tarask\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestMessagesCommand(t *testing.T) {
	cfgPath := writeConfig(t, catalogRoot(t), "")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "user language as yaml",
			args: []string{"messages", "Foo"},
			want: []string{"fr:", "greeting: Bonjour"},
		},
		{
			name: "explicit language",
			args: []string{"messages", "Foo", "--lang", "de"},
			want: []string{"de:", "greeting: Hallo"},
		},
		{
			name: "per-language files",
			args: []string{"messages", "Bar", "--lang", "pt_BR"},
			want: []string{"pt-br:", "title: Barra"},
		},
		{
			name: "selected keys",
			args: []string{"messages", "Foo", "-k", "greeting", "-k", "farewell", "-k", "nope"},
			want: []string{"greeting: Bonjour", "farewell: Bye", "nope: nope"},
		},
		{
			name: "other language with cache-all",
			args: []string{"messages", "Foo", "--cache-all", "--in-lang", "de"},
			want: []string{"de:", "greeting: Hallo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCommand(t, append(tt.args, "-c", cfgPath)...)
			if err != nil {
				t.Fatalf("messages: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Fatalf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestMessagesCommand_JSON(t *testing.T) {
	cfgPath := writeConfig(t, catalogRoot(t), "")
	out, _, err := runCommand(t, "messages", "Foo", "--lang", "en", "-o", "json", "-c", cfgPath)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	var payload map[string]map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if payload["en"]["farewell"] != "Bye" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestMessagesCommand_DegradedWhenMissing(t *testing.T) {
	cfgPath := writeConfig(t, catalogRoot(t), "")
	out, _, err := runCommand(t, "messages", "Missing", "-k", "greeting", "-c", cfgPath)
	if err != nil {
		t.Fatalf("a missing catalog must not fail the command: %v", err)
	}
	if !strings.Contains(out, "greeting: greeting") {
		t.Fatalf("expected the key as message, got:\n%s", out)
	}
}

func TestMessagesCommand_UnsupportedFormat(t *testing.T) {
	cfgPath := writeConfig(t, catalogRoot(t), "")
	if _, _, err := runCommand(t, "messages", "Foo", "-o", "toml", "-c", cfgPath); err == nil {
		t.Fatal("expected an error for toml output")
	}
}

func TestResolveCommand(t *testing.T) {
	root := catalogRoot(t)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "exact", args: []string{filepath.Join(root, "Foo", "i18n.json"), "greeting", "fr"}, want: "Bonjour\n"},
		{name: "fallback chain", args: []string{filepath.Join(root, "Foo", "i18n.json"), "greeting", "de-at"}, want: "Hallo\n"},
		{name: "baseline", args: []string{filepath.Join(root, "Foo", "i18n.json"), "farewell", "fr"}, want: "Bye\n"},
		{name: "directory", args: []string{filepath.Join(root, "Bar", "i18n"), "title", "pt-BR"}, want: "Barra\n"},
		{name: "unknown key", args: []string{filepath.Join(root, "Foo", "i18n.json"), "nope", "fr"}, wantErr: true},
		{name: "missing path", args: []string{filepath.Join(root, "Nope"), "greeting", "fr"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCommand(t, append([]string{"resolve"}, tt.args...)...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got output %q", out)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if out != tt.want {
				t.Fatalf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestSweepCommand(t *testing.T) {
	cfgPath := writeConfig(t, catalogRoot(t), "")
	out, _, err := runCommand(t, "sweep", "-c", cfgPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if out != "removed 0 expired catalogs from memory\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestPublishCommand_DryRun(t *testing.T) {
	root := catalogRoot(t)
	cfgPath := writeConfig(t, root, "")

	out, _, err := runCommand(t, "publish", root, "--dry-run", "-c", cfgPath)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "Bar/i18n.json\t") || !strings.HasPrefix(lines[1], "Foo/i18n.json\t") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPublishCommand_RejectsInvalidCatalogs(t *testing.T) {
	root := catalogRoot(t)
	writeFile(t, filepath.Join(root, "NoBaseline", "i18n.json"), `{"fr": {"greeting": "Bonjour"}}`)
	cfgPath := writeConfig(t, root, "")

	out, _, err := runCommand(t, "publish", root, "--dry-run", "-c", cfgPath)
	if err == nil {
		t.Fatalf("expected validation error, got output:\n%s", out)
	}
	if !strings.Contains(err.Error(), "NoBaseline") {
		t.Fatalf("error should name the gadget: %v", err)
	}
	if out != "" {
		t.Fatalf("nothing should be listed when validation fails, got:\n%s", out)
	}
}

func TestPublishCommand_RequiresBucket(t *testing.T) {
	root := catalogRoot(t)
	cfgPath := writeConfig(t, root, "")
	if _, _, err := runCommand(t, "publish", root, "Foo", "-c", cfgPath); err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("expected missing bucket error, got %v", err)
	}
}

func TestHealthcheckCommand(t *testing.T) {
	root := catalogRoot(t)
	out, _, err := runCommand(t, "healthcheck", "-c", writeConfig(t, root, ""))
	if err != nil {
		t.Fatalf("healthcheck: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"status": "healthy"`) {
		t.Fatalf("unexpected output:\n%s", out)
	}

	missing := filepath.Join(root, "gone")
	if _, _, err := runCommand(t, "healthcheck", "-c", writeConfig(t, missing, "")); err == nil {
		t.Fatal("expected a missing catalog root to fail the healthcheck")
	}

	out, _, err = runCommand(t, "healthcheck", "--check", "source", "-c", writeConfig(t, root, ""))
	if err != nil || !strings.Contains(out, `"name": "source"`) {
		t.Fatalf("single check: %v\n%s", err, out)
	}
	_, _, err = runCommand(t, "healthcheck", "--check", "nope", "-c", writeConfig(t, root, ""))
	if err == nil || !strings.Contains(err.Error(), "registered: source") {
		t.Fatalf("expected unknown check error, got %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	cfgPath := writeConfig(t, catalogRoot(t), `  tracing:
    enabled: false
`)
	out, _, err := runCommand(t, "config", "validate", "-c", cfgPath)
	if err != nil || !strings.Contains(out, "configuration is valid") {
		t.Fatalf("validate: %v %q", err, out)
	}

	secretPath := filepath.Join(t.TempDir(), "secret.yaml")
	writeFile(t, secretPath, `source:
  type: s3
  s3:
    bucket: catalogs
    region: eu-west-1
    secret_access_key: topsecret
`)
	out, _, err = runCommand(t, "config", "show", "-c", secretPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "topsecret") || !strings.Contains(out, "secret_access_key: "+config.Redacted) {
		t.Fatalf("secret not masked:\n%s", out)
	}

	badPath := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, badPath, "source:\n  type: ftp\n")
	if _, _, err := runCommand(t, "config", "validate", "-c", badPath); err == nil {
		t.Fatal("expected invalid source.type to fail validation")
	}
}

package stdlib_test

import (
	"bufio"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/evaluator"
	"github.com/thomasrohde/ct/pkg/stdlib"
)

func str(s string) evaluator.Value { return evaluator.NewString(s) }

// natives builds the default table over in-memory streams.
func natives(t *testing.T, out *bytes.Buffer, in string, policy *capabilities.Policy) *evaluator.Natives {
	t.Helper()
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, out, strings.NewReader(in), policy)
	return reg.Build()
}

func requireSoftError(t *testing.T, v evaluator.Value, contains string) {
	t.Helper()
	errVal, ok := v.(evaluator.CtError)
	require.Truef(t, ok, "expected CtError, got %T (%v)", v, v)
	assert.Contains(t, errVal.Message, contains)
}

func TestRegisterDefaults(t *testing.T) {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, &bytes.Buffer{}, strings.NewReader(""), capabilities.DenyAll())

	for _, name := range []string{
		"print", "input", "flush",
		"read_file", "write_file", "file_exists",
		"len", "upper", "lower", "trim", "contains", "replace", "starts_with", "ends_with",
		"type_of", "is_error", "error",
		"http_get", "sh_exec",
	} {
		assert.NotNilf(t, reg.Get(name), "missing native %s", name)
	}
	assert.Equal(t, "iostream", reg.Get("print").Module)
	assert.Equal(t, "filestream", reg.Get("read_file").Module)
	assert.IsIncreasing(t, reg.Names())
}

// --- iostream ---

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		args []evaluator.Value
		want string
	}{
		{"plain", []evaluator.Value{str("hello\n")}, "hello\n"},
		{"placeholders", []evaluator.Value{str("{} + {} = {}"), evaluator.NewInt(1), evaluator.NewFloat(2.5), evaluator.NewFloat(3.5)}, "1 + 2.5 = 3.5"},
		{"escaped braces", []evaluator.Value{str("{{}} {}"), evaluator.NewBool(true)}, "{} true"},
		{"missing argument", []evaluator.Value{str("a{}b")}, "ab"},
		{"absent argument", []evaluator.Value{str("[{}]"), nil}, "[]"},
		{"absent argument advances", []evaluator.Value{str("[{}] [{}]"), nil, evaluator.NewInt(7)}, "[] [7]"},
		{"lone brace", []evaluator.Value{str("{x}")}, "{x}"},
		{"non-string first", []evaluator.Value{evaluator.NewInt(42), str("ignored")}, "42"},
		{"none first", []evaluator.Value{nil}, "None"},
		{"error value", []evaluator.Value{str("{}"), evaluator.NewError("boom")}, "error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stdlib.Render(tt.args))
		})
	}
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	n := natives(t, &out, "", nil)

	assert.Nil(t, n.Execute("print", []evaluator.Value{str("x = {}\n"), evaluator.NewInt(3)}))
	assert.Nil(t, n.Execute("print", nil))
	assert.Equal(t, "x = 3\n", out.String())
}

func TestInput(t *testing.T) {
	var out bytes.Buffer
	n := natives(t, &out, "  alice  \nbob", nil)

	got := n.Execute("input", []evaluator.Value{str("name? ")})
	assert.Equal(t, str("alice"), got)
	assert.Equal(t, "name? ", out.String())

	// last line without newline
	assert.Equal(t, str("bob"), n.Execute("input", nil))
	// exhausted input yields an empty string, not an abort
	assert.Equal(t, str(""), n.Execute("input", nil))
}

func TestFlush(t *testing.T) {
	var sink bytes.Buffer
	w := bufio.NewWriter(&sink)
	reg := stdlib.NewRegistry()
	reg.Append(stdlib.NewIOStream(w, strings.NewReader("")))
	n := reg.Build()

	n.Execute("print", []evaluator.Value{str("buffered")})
	assert.Empty(t, sink.String())
	n.Execute("flush", []evaluator.Value{str("!")})
	assert.Equal(t, "buffered!", sink.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, os.ErrClosed }

func TestPrintFailureIsSoft(t *testing.T) {
	reg := stdlib.NewRegistry()
	reg.Append(stdlib.NewIOStream(failingWriter{}, strings.NewReader("")))
	requireSoftError(t, reg.Build().Execute("print", []evaluator.Value{str("x")}), "print")
}

// --- filestream ---

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("contents"), 0644))

	n := natives(t, &bytes.Buffer{}, "", capabilities.AllowAll())
	assert.Equal(t, str("contents"), n.Execute("read_file", []evaluator.Value{str(path)}))
}

func TestReadFileErrorsAreSoft(t *testing.T) {
	n := natives(t, &bytes.Buffer{}, "", capabilities.AllowAll())

	missing := filepath.Join(t.TempDir(), "nope.txt")
	v := n.Execute("read_file", []evaluator.Value{str(missing)})
	requireSoftError(t, v, "nope.txt")

	requireSoftError(t, n.Execute("read_file", nil), "Not enough arguments")
	requireSoftError(t, n.Execute("read_file", []evaluator.Value{evaluator.NewInt(1)}), "String")
}

func TestFileCapabilities(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "out.txt")

	readOnly, err := capabilities.New([]string{capabilities.FSRead}, nil)
	require.NoError(t, err)
	n := natives(t, &bytes.Buffer{}, "", readOnly)
	requireSoftError(t, n.Execute("write_file", []evaluator.Value{str(path), str("x")}), "fs.write")

	n = natives(t, &bytes.Buffer{}, "", capabilities.DenyAll())
	requireSoftError(t, n.Execute("read_file", []evaluator.Value{str(path)}), "fs.read")
	requireSoftError(t, n.Execute("file_exists", []evaluator.Value{str(path)}), "fs.read")
}

func TestWriteFileAndExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.txt")
	n := natives(t, &bytes.Buffer{}, "", capabilities.AllowAll())

	assert.Equal(t, evaluator.NewBool(false), n.Execute("file_exists", []evaluator.Value{str(path)}))
	assert.Equal(t, evaluator.NewInt(2), n.Execute("write_file", []evaluator.Value{str(path), evaluator.NewInt(42)}))
	assert.Equal(t, evaluator.NewBool(true), n.Execute("file_exists", []evaluator.Value{str(path)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))
}

// --- strings ---

func TestStringNatives(t *testing.T) {
	n := natives(t, &bytes.Buffer{}, "", nil)

	tests := []struct {
		name string
		args []evaluator.Value
		want evaluator.Value
	}{
		{"len", []evaluator.Value{str("héllo")}, evaluator.NewInt(5)},
		{"upper", []evaluator.Value{str("abc")}, str("ABC")},
		{"lower", []evaluator.Value{str("ABC")}, str("abc")},
		{"trim", []evaluator.Value{str("  x \n")}, str("x")},
		{"contains", []evaluator.Value{str("hello"), str("ell")}, evaluator.NewBool(true)},
		{"replace", []evaluator.Value{str("a-b-c"), str("-"), str("+")}, str("a+b+c")},
		{"starts_with", []evaluator.Value{str("hello"), str("he")}, evaluator.NewBool(true)},
		{"ends_with", []evaluator.Value{str("hello"), str("he")}, evaluator.NewBool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Execute(tt.name, tt.args))
		})
	}
}

func TestStringNativeArgErrors(t *testing.T) {
	n := natives(t, &bytes.Buffer{}, "", nil)

	requireSoftError(t, n.Execute("len", []evaluator.Value{evaluator.NewInt(1)}), "length")
	requireSoftError(t, n.Execute("len", nil), "Not enough arguments")
	requireSoftError(t, n.Execute("upper", []evaluator.Value{str("a"), str("b")}), "expects 1 argument")
	requireSoftError(t, n.Execute("replace", []evaluator.Value{str("a"), evaluator.NewInt(1), str("b")}), "argument 2")
}

// --- core ---

func TestCoreNatives(t *testing.T) {
	n := natives(t, &bytes.Buffer{}, "", nil)

	assert.Equal(t, str("int"), n.Execute("type_of", []evaluator.Value{evaluator.NewInt(1)}))
	assert.Equal(t, str("null"), n.Execute("type_of", []evaluator.Value{nil}))

	errVal := n.Execute("error", []evaluator.Value{str("custom")})
	requireSoftError(t, errVal, "custom")
	assert.Equal(t, evaluator.NewBool(true), n.Execute("is_error", []evaluator.Value{errVal}))
	assert.Equal(t, evaluator.NewBool(false), n.Execute("is_error", []evaluator.Value{str("x")}))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.ct")
	require.NoError(t, os.WriteFile(path, []byte(`print("hi");`), 0644))
	assert.Equal(t, str(`print("hi");`), stdlib.Load(path))
	requireSoftError(t, stdlib.Load(path+".missing"), "prog.ct.missing")
}

// --- system ---

func TestSystemCapabilities(t *testing.T) {
	n := natives(t, &bytes.Buffer{}, "", capabilities.DenyAll())
	requireSoftError(t, n.Execute("http_get", []evaluator.Value{str("data:,x")}), "http.get")
	requireSoftError(t, n.Execute("sh_exec", []evaluator.Value{str("echo x")}), "sh.exec")
}

func TestHTTPGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	n := natives(t, &bytes.Buffer{}, "", capabilities.AllowAll())
	assert.Equal(t, str("body"), n.Execute("http_get", []evaluator.Value{str(srv.URL + "/ok")}))
	requireSoftError(t, n.Execute("http_get", []evaluator.Value{str(srv.URL + "/missing")}), "404")
	assert.Equal(t, str("hello world"), n.Execute("http_get", []evaluator.Value{str("data:text/plain,hello%20world")}))
	requireSoftError(t, n.Execute("http_get", []evaluator.Value{str("data:nocomma")}), "invalid data URL")
	requireSoftError(t, n.Execute("http_get", nil), "expects 1 argument")
}

func TestShExec(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	n := natives(t, &bytes.Buffer{}, "", capabilities.AllowAll())
	assert.Equal(t, str("hi\n"), n.Execute("sh_exec", []evaluator.Value{str("echo hi")}))
	requireSoftError(t, n.Execute("sh_exec", []evaluator.Value{str("echo oops >&2; exit 3")}), "exit status 3: oops")
}

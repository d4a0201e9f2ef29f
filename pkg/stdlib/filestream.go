package stdlib

import (
	"os"
	"path/filepath"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/evaluator"
)

// FileStream provides file access natives gated by a capability policy.
// Every failure is returned as a soft error value.
type FileStream struct {
	policy *capabilities.Policy
}

// NewFileStream creates the file module. A nil policy denies everything.
func NewFileStream(policy *capabilities.Policy) *FileStream {
	return &FileStream{policy: policy}
}

// Name returns the module name.
func (m *FileStream) Name() string { return "filestream" }

// Extend registers the module's natives.
func (m *FileStream) Extend(r *Registry) {
	r.Register(Fn{Name: "read_file", Module: m.Name(), Execute: m.readFile})
	r.Register(Fn{Name: "write_file", Module: m.Name(), Execute: m.writeFile})
	r.Register(Fn{Name: "file_exists", Module: m.Name(), Execute: m.fileExists})
}

func (m *FileStream) denied(name, capability string) evaluator.Value {
	if m.policy.IsAllowed(capability) {
		return nil
	}
	return evaluator.NewError("%s: capability '%s' denied by policy", name, capability)
}

// read_file(path) → String | err
func (m *FileStream) readFile(args []evaluator.Value) evaluator.Value {
	if len(args) != 1 || args[0] == nil {
		return evaluator.NewError("Not enough arguments provided")
	}
	path, errVal := stringArg("read_file", args, 0)
	if errVal != nil {
		return errVal
	}
	if errVal := m.denied("read_file", capabilities.FSRead); errVal != nil {
		return errVal
	}
	return Load(path)
}

// Load reads a whole file as a String, or returns an err value. It is not
// capability-gated: the host uses it to load program sources.
func Load(path string) evaluator.Value {
	resolved, err := filepath.Abs(path)
	if err != nil {
		return evaluator.NewError("invalid path: %v", err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return evaluator.NewError("%v", err)
	}
	return evaluator.NewString(string(data))
}

// write_file(path, data) → int (bytes written) | err
// Non-String data is written in its printed form.
func (m *FileStream) writeFile(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("write_file", 2, args); errVal != nil {
		return errVal
	}
	path, errVal := stringArg("write_file", args, 0)
	if errVal != nil {
		return errVal
	}
	if errVal := m.denied("write_file", capabilities.FSWrite); errVal != nil {
		return errVal
	}

	content := evaluator.Format(args[1])
	resolved, err := filepath.Abs(path)
	if err != nil {
		return evaluator.NewError("write_file: invalid path: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return evaluator.NewError("write_file: cannot create directory: %v", err)
	}
	if err := os.WriteFile(resolved, []byte(content), 0644); err != nil {
		return evaluator.NewError("%v", err)
	}
	return evaluator.NewInt(int64(len(content)))
}

// file_exists(path) → bool | err
func (m *FileStream) fileExists(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("file_exists", 1, args); errVal != nil {
		return errVal
	}
	path, errVal := stringArg("file_exists", args, 0)
	if errVal != nil {
		return errVal
	}
	if errVal := m.denied("file_exists", capabilities.FSRead); errVal != nil {
		return errVal
	}

	resolved, err := filepath.Abs(path)
	if err != nil {
		return evaluator.NewBool(false)
	}
	_, err = os.Stat(resolved)
	return evaluator.NewBool(err == nil)
}

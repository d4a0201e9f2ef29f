package stdlib

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/evaluator"
)

// DefaultSystemTimeout bounds every http_get and sh_exec call.
const DefaultSystemTimeout = 30 * time.Second

// System provides host access natives: HTTP fetches and shell commands.
// Both are capability-gated and return soft errors on failure.
type System struct {
	policy  *capabilities.Policy
	client  *http.Client
	timeout time.Duration
}

// NewSystem creates the system module. A nil policy denies everything.
func NewSystem(policy *capabilities.Policy) *System {
	return &System{policy: policy, client: http.DefaultClient, timeout: DefaultSystemTimeout}
}

// Name returns the module name.
func (m *System) Name() string { return "system" }

// Extend registers the module's natives.
func (m *System) Extend(r *Registry) {
	r.Register(Fn{Name: "http_get", Module: m.Name(), Execute: m.httpGet})
	r.Register(Fn{Name: "sh_exec", Module: m.Name(), Execute: m.shExec})
}

func (m *System) denied(name, capability string) evaluator.Value {
	if m.policy.IsAllowed(capability) {
		return nil
	}
	return evaluator.NewError("%s: capability '%s' denied by policy", name, capability)
}

// http_get(url) → String (response body) | err
// data: URLs are decoded locally. Non-2xx responses are errors.
func (m *System) httpGet(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("http_get", 1, args); errVal != nil {
		return errVal
	}
	target, errVal := stringArg("http_get", args, 0)
	if errVal != nil {
		return errVal
	}
	if errVal := m.denied("http_get", capabilities.HTTPGet); errVal != nil {
		return errVal
	}

	if strings.HasPrefix(target, "data:") {
		return decodeDataURL(target)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return evaluator.NewError("http_get: %v", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return evaluator.NewError("http_get: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return evaluator.NewError("http_get: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return evaluator.NewError("http_get: %s", resp.Status)
	}
	return evaluator.NewString(string(body))
}

// decodeDataURL handles data:[<mediatype>],<data> with percent-encoding.
func decodeDataURL(dataURL string) evaluator.Value {
	rest := strings.TrimPrefix(dataURL, "data:")
	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return evaluator.NewError("http_get: invalid data URL")
	}
	body := rest[commaIdx+1:]
	decoded, err := url.PathUnescape(body)
	if err != nil {
		decoded = body
	}
	return evaluator.NewString(decoded)
}

// sh_exec(cmd) → String (standard output) | err
// A non-zero exit status is an error carrying the command's stderr.
func (m *System) shExec(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("sh_exec", 1, args); errVal != nil {
		return errVal
	}
	command, errVal := stringArg("sh_exec", args, 0)
	if errVal != nil {
		return errVal
	}
	if errVal := m.denied("sh_exec", capabilities.ShExec); errVal != nil {
		return errVal
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/c", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}

	stdout, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return evaluator.NewError("sh_exec: exit status %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return evaluator.NewError("sh_exec: %v", err)
	}
	return evaluator.NewString(string(stdout))
}


package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"reelsmith/internal/config"
	"reelsmith/internal/services"
)

const remoteCheckTimeout = 30 * time.Second

// Remote is a service that can confirm its credentials with one request.
type Remote struct {
	Name  string
	Check func(ctx context.Context) error
}

// CheckRemote runs a remote probe with a 30-second timeout and a single attempt.
func CheckRemote(ctx context.Context, remote Remote) Result {
	if remote.Check == nil {
		return Result{Name: remote.Name, Detail: "no check configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()
	if err := remote.Check(checkCtx); err != nil {
		return Result{Name: remote.Name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: remote.Name, Passed: true, Detail: "API reachable"}
}

// CheckCredentials reports whether each API credential is configured.
func CheckCredentials(cfg *config.Config) []Result {
	missing := make(map[string]bool)
	for _, name := range cfg.MissingCredentials() {
		missing[name] = true
	}
	results := make([]Result, 0, 2)
	for _, cred := range []struct {
		name string
		env  string
	}{
		{"OpenAI API key", config.EnvOpenAIKey},
		{"Replicate API token", config.EnvReplicateKey},
	} {
		if missing[cred.env] {
			results = append(results, Result{Name: cred.name, Detail: fmt.Sprintf("missing (set %s)", cred.env)})
			continue
		}
		results = append(results, Result{Name: cred.name, Passed: true, Detail: "configured"})
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeRemoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	if errors.Is(err, services.ErrMissingCredentials) {
		return "skipped (credential missing)"
	}
	var httpErr *services.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 401, 403:
			return fmt.Sprintf("auth failed (%d)", httpErr.StatusCode)
		default:
			return fmt.Sprintf("check failed (%d)", httpErr.StatusCode)
		}
	}
	return err.Error()
}

package shell

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mkoelbl/treescope/pkg/errors"
)

// captureRunner records launches and fails the commands named in fail.
type captureRunner struct {
	calls []string
	fail  map[string]bool
}

func (c *captureRunner) run(name string, args ...string) error {
	c.calls = append(c.calls, name)
	if c.fail[name] {
		return fmt.Errorf("%s: executable file not found", name)
	}
	return nil
}

func withRunner(t *testing.T, r *captureRunner) {
	t.Helper()
	prev := runCommand
	runCommand = r.run
	t.Cleanup(func() { runCommand = prev })
}

func TestOpenForOS(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"windows", "explorer"},
		{"linux", "xdg-open"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			r := &captureRunner{}
			withRunner(t, r)

			if err := openForOS(tt.goos, "/some/dir"); err != nil {
				t.Fatalf("openForOS(%s) error = %v", tt.goos, err)
			}
			if len(r.calls) != 1 || r.calls[0] != tt.want {
				t.Errorf("launched %v, want [%s]", r.calls, tt.want)
			}
		})
	}
}

func TestOpenForOS_LinuxFallback(t *testing.T) {
	r := &captureRunner{fail: map[string]bool{"xdg-open": true, "nautilus": true}}
	withRunner(t, r)

	if err := openForOS("linux", "/some/dir"); err != nil {
		t.Fatalf("openForOS(linux) error = %v", err)
	}
	if got := r.calls[len(r.calls)-1]; got != "dolphin" {
		t.Errorf("last launch = %s, want dolphin", got)
	}
}

func TestOpenForOS_LinuxAllFail(t *testing.T) {
	fail := map[string]bool{}
	for _, fm := range linuxFileManagers {
		fail[fm] = true
	}
	r := &captureRunner{fail: fail}
	withRunner(t, r)

	err := openForOS("linux", "/some/dir")
	if errors.GetCode(err) != errors.ErrCodeShellLaunchFailed {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeShellLaunchFailed)
	}
}

func TestOpenForOS_Unsupported(t *testing.T) {
	withRunner(t, &captureRunner{})

	err := openForOS("plan9", "/some/dir")
	if errors.GetCode(err) != errors.ErrCodeUnsupported {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnsupported)
	}
}

func TestOpenInFileManager_MissingPath(t *testing.T) {
	withRunner(t, &captureRunner{})

	err := OpenInFileManager(filepath.Join(t.TempDir(), "gone"))
	if errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeNotFound)
	}
}

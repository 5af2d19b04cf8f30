// Package shell launches the platform's native file manager for a
// directory shown in the diagram.
package shell

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/mkoelbl/treescope/pkg/errors"
)

// runCommand starts commands; replaced in tests.
var runCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// linuxFileManagers are tried in order until one launches.
var linuxFileManagers = []string{"xdg-open", "nautilus", "dolphin", "thunar"}

// OpenInFileManager opens the directory at path in the operating
// system's file manager. The viewer is started detached; its exit
// status is not observed.
func OpenInFileManager(path string) error {
	if _, err := os.Stat(path); err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "folder does not exist: %s", path)
	}
	return openForOS(runtime.GOOS, path)
}

func openForOS(goos, path string) error {
	switch goos {
	case "darwin":
		return launch("open", path)
	case "windows":
		return launch("explorer", path)
	case "linux":
		var lastErr error
		for _, fm := range linuxFileManagers {
			if lastErr = launch(fm, path); lastErr == nil {
				return nil
			}
		}
		return lastErr
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported operating system: %s", goos)
	}
}

func launch(name, path string) error {
	if err := runCommand(name, path); err != nil {
		return errors.Wrap(errors.ErrCodeShellLaunchFailed, err, "launch %s", name)
	}
	return nil
}

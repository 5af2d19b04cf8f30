// Package fsops performs the directory mutations behind interactive
// diagram editing: creating, renaming, and deleting folders, and
// collecting folder properties. Every mutation validates its inputs
// before touching the filesystem, so a rejected operation leaves the
// tree untouched.
package fsops

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/mkoelbl/treescope/pkg/errors"
	"github.com/mkoelbl/treescope/pkg/observability"
)

// CreateDirectory creates a new folder named name under parentPath.
// The name is validated first; a name that already exists under the
// parent is rejected as invalid before anything is created. Returns
// the new folder's absolute path.
func CreateDirectory(parentPath, name string) (string, error) {
	if err := errors.ValidateFolderName(name); err != nil {
		return "", err
	}
	info, err := os.Stat(parentPath)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNotFound, err, "parent directory does not exist: %s", parentPath)
	}
	if !info.IsDir() {
		return "", errors.New(errors.ErrCodeInvalidPath, "parent is not a directory: %s", parentPath)
	}

	newPath := filepath.Join(parentPath, name)
	if _, err := os.Lstat(newPath); err == nil {
		return "", errors.New(errors.ErrCodeInvalidName, "folder already exists: %s", name)
	}

	err = os.Mkdir(newPath, 0755)
	observability.FS().OnCreate(context.Background(), newPath, err)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "create folder %s", name)
	}
	return newPath, nil
}

// RenameDirectory renames the folder at path to newName within the
// same parent directory. Renaming to the current name is a no-op.
// Returns the folder's new absolute path.
func RenameDirectory(path, newName string) (string, error) {
	if err := errors.ValidateFolderName(newName); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", errors.Wrap(errors.ErrCodeNotFound, err, "folder does not exist: %s", path)
	}
	if filepath.Base(path) == newName {
		return path, nil
	}

	newPath := filepath.Join(filepath.Dir(path), newName)
	if _, err := os.Lstat(newPath); err == nil {
		return "", errors.New(errors.ErrCodeInvalidName, "folder already exists: %s", newName)
	}

	err := os.Rename(path, newPath)
	observability.FS().OnRename(context.Background(), path, newPath, err)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "rename folder to %s", newName)
	}
	return newPath, nil
}

// DeleteDirectory removes the folder at path and everything under it.
func DeleteDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "folder does not exist: %s", path)
	}
	if !info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", path)
	}
	err = os.RemoveAll(path)
	observability.FS().OnDelete(context.Background(), path, err)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete folder %s", path)
	}
	return nil
}

// Properties summarizes a folder: recursive counts and byte size,
// timestamps, and usage of the volume the folder lives on.
type Properties struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	Files      int       `json:"files"`
	Dirs       int       `json:"dirs"`
	Unreadable int       `json:"unreadable"`
	Modified   time.Time `json:"modified"`

	// Volume usage for the filesystem containing the folder. Nil when
	// the platform query fails; the walk statistics are still valid.
	Volume *VolumeUsage `json:"volume,omitempty"`
}

// VolumeUsage describes the containing filesystem.
type VolumeUsage struct {
	MountPath   string  `json:"mount_path"`
	TotalBytes  uint64  `json:"total_bytes"`
	FreeBytes   uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// Stat collects Properties for the folder at path. Entries that
// cannot be read are counted rather than failing the whole walk, the
// same partial-success rule the tree builder follows.
func Stat(path string) (Properties, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Properties{}, errors.Wrap(errors.ErrCodeNotFound, err, "folder does not exist: %s", path)
	}
	if !info.IsDir() {
		return Properties{}, errors.New(errors.ErrCodeInvalidPath, "not a directory: %s", path)
	}

	p := Properties{
		Name:     filepath.Base(path),
		Path:     path,
		Modified: info.ModTime(),
	}

	walkErr := filepath.WalkDir(path, func(entry string, d fs.DirEntry, err error) error {
		if err != nil {
			p.Unreadable++
			return fs.SkipDir
		}
		if entry == path {
			return nil
		}
		if d.IsDir() {
			p.Dirs++
			return nil
		}
		p.Files++
		if fi, err := d.Info(); err == nil {
			p.SizeBytes += fi.Size()
		}
		return nil
	})
	if walkErr != nil {
		return Properties{}, errors.Wrap(errors.ErrCodeInternal, walkErr, "walk %s", path)
	}

	if usage, err := disk.Usage(path); err == nil {
		p.Volume = &VolumeUsage{
			MountPath:   usage.Path,
			TotalBytes:  usage.Total,
			FreeBytes:   usage.Free,
			UsedPercent: usage.UsedPercent,
		}
	}

	return p, nil
}

package fgbio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/flemzord/fgbio-mcp/internal/security"
)

// CheckPaths verifies the filesystem side of a SortRequest: the input is a
// readable regular file and the output directory exists.
func (r SortRequest) CheckPaths() error {
	if err := checkInput("input_bam", r.InputBAM); err != nil {
		return err
	}
	if err := checkOutput("output_bam", r.OutputBAM); err != nil {
		return err
	}
	if r.TempDir != nil {
		if err := checkDir("temp_dir", *r.TempDir); err != nil {
			return err
		}
	}
	return nil
}

// CheckPaths verifies the filesystem side of a FilterRequest. The
// intervals file is checked for existence only; it is passed through unread.
func (r FilterRequest) CheckPaths() error {
	if err := checkInput("input_bam", r.InputBAM); err != nil {
		return err
	}
	if err := checkOutput("output_bam", r.OutputBAM); err != nil {
		return err
	}
	if r.Rejects != nil {
		if err := checkOutput("rejects", *r.Rejects); err != nil {
			return err
		}
	}
	if r.Intervals != nil {
		if err := checkInput("intervals", *r.Intervals); err != nil {
			return err
		}
	}
	return nil
}

func checkInput(field, path string) error {
	if err := security.ValidatePath(path); err != nil {
		return invalid(field, "%v", err)
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return unavailable(field, "file does not exist: %s", path)
	case err != nil:
		return unavailable(field, "%v", err)
	case !info.Mode().IsRegular():
		return invalid(field, "not a regular file: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return unavailable(field, "file is not readable: %v", err)
	}
	_ = f.Close()
	return nil
}

func checkOutput(field, path string) error {
	if err := security.ValidatePath(path); err != nil {
		return invalid(field, "%v", err)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return invalid(field, "path is a directory: %s", path)
	}
	return checkDir(field, filepath.Dir(path))
}

func checkDir(field, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return invalid(field, "directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return invalid(field, "not a directory: %s", dir)
	}
	return nil
}

package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperrors "multiput/internal/errors"
	"multiput/internal/store"
)

func checkSourceDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "source",
			fmt.Sprintf("invalid directory %s", dir), err)
	}
	if !info.IsDir() {
		return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "source",
			fmt.Sprintf("invalid directory %s: not a directory", dir), nil)
	}
	d, err := os.Open(dir)
	if err != nil {
		return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "source",
			fmt.Sprintf("unreadable directory %s", dir), err)
	}
	defer d.Close()
	if _, err := d.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return apperrors.NewError(apperrors.ErrArgs, apperrors.ERROR, "source",
			fmt.Sprintf("unreadable directory %s", dir), err)
	}
	return nil
}

// ListSource lists the regular files of dir in name order, recording each size once.
// Sub-directories and entries that cannot be stat'ed are left out.
func ListSource(dir string) ([]store.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Fatal(apperrors.ErrIO, "source",
			fmt.Sprintf("cannot list directory %s", dir), err)
	}
	files := make([]store.FileInfo, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		filestats, err := os.Stat(path)
		if err != nil || !filestats.Mode().IsRegular() {
			continue
		}
		files = append(files, store.FileInfo{
			Filename: entry.Name(),
			Path:     path,
			Size:     filestats.Size(),
		})
	}
	return files, nil
}

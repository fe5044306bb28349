package clean

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// copyFile copies an unprocessed original next to the cleaned pictures. It
// never overwrites an existing destination.
func copyFile(logger *slog.Logger, src, dest string) error {
	logger.Info("copying original", "to", dest)

	if err := checkFile(src, dest); err != nil {
		return err
	}

	inFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("could not open source file %q: %w", src, err)
	}
	defer func() {
		if closeErr := inFile.Close(); closeErr != nil {
			logger.Error("could not close source file", "error", closeErr)
		}
	}()

	return writeCopy(logger, inFile, dest)
}

// writeCopy fills dest from r. A partially written dest is removed.
func writeCopy(logger *slog.Logger, r io.Reader, dest string) (err error) {
	outFile, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("could not open destination file %q: %w", dest, err)
	}
	defer func() {
		if closeErr := outFile.Close(); closeErr != nil {
			logger.Error("could not close destination file", "name", dest, "error", closeErr)
		}
		if err != nil {
			if rmErr := os.Remove(dest); rmErr != nil {
				logger.Error("could not remove partial destination file", "name", dest, "error", rmErr)
			}
		}
	}()

	if _, err = io.Copy(outFile, r); err != nil {
		return fmt.Errorf("could not copy to %q: %w", dest, err)
	}

	if err = outFile.Sync(); err != nil {
		return fmt.Errorf("could not flush destination file %q: %w", dest, err)
	}
	return nil
}

func checkFile(src, dest string) error {
	srcFileInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("cannot stat source file %q: %w", src, err)
	}
	if !srcFileInfo.Mode().IsRegular() {
		return fmt.Errorf("cannot copy non-regular file %q: %s", srcFileInfo.Name(), srcFileInfo.Mode().String())
	}
	destFileInfo, err := os.Stat(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
		}
	} else {
		return fmt.Errorf("destination file already exists: %q", destFileInfo.Name())
	}

	return nil
}

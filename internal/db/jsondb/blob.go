package jsondb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Blob is the raw byte storage behind one collection. Load returns the whole
// content, Store replaces it.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Store(ctx context.Context, data []byte) error
}

type fileBlob struct {
	fileName string
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	if _, err = fmt.Fprintln(dbFile, `[]`); err != nil {
		_ = dbFile.Close()
		return err
	}

	return dbFile.Close()
}

func (b *fileBlob) Load(ctx context.Context) ([]byte, error) {
	file, err := os.Open(b.fileName)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return data, nil
}

// Store writes data next to the target and renames it over the target, so a
// reader never observes a half-written collection.
func (b *fileBlob) Store(ctx context.Context, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(b.fileName), filepath.Base(b.fileName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error writing to file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("error syncing file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	if err = os.Rename(tmp.Name(), b.fileName); err != nil {
		return fmt.Errorf("error replacing file: %w", err)
	}

	return nil
}

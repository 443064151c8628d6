package source

import (
	"context"
	"fmt"
	"os"

	"wastedash/internal/core"
)

// File loads the dataset from a local CSV or XLSX file.
type File struct {
	path string
}

// NewFile returns a loader reading path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load reads and decodes the file.
func (f *File) Load(ctx context.Context) ([]core.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer fh.Close()
	return Decode(FormatOf(f.path), fh)
}

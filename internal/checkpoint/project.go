package checkpoint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/backcheck/backcheck/internal/config"
)

// Project is a per-input-file working directory. The input is copied
// in on creation so resuming keeps working even when the original file
// moves or changes.
type Project struct {
	// Name is the input file basename without extension.
	Name string

	// Dir is the project directory.
	Dir string

	// InputFile is the project-local copy of the input spreadsheet.
	InputFile string
}

// OpenProject creates or reopens the project for inputPath. The
// project lives under baseDir, or under the XDG data directory when
// baseDir is empty.
func OpenProject(inputPath, baseDir string) (*Project, error) {
	if baseDir == "" {
		baseDir = filepath.Join(config.XDGDataDir(), "projects")
	}

	filename := filepath.Base(inputPath)
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	dir := filepath.Join(baseDir, name)

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}

	localInput := filepath.Join(dir, filename)
	if _, err := os.Stat(localInput); os.IsNotExist(err) {
		if err := copyFile(inputPath, localInput); err != nil {
			return nil, fmt.Errorf("copy input into project: %w", err)
		}
	}

	return &Project{Name: name, Dir: dir, InputFile: localInput}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

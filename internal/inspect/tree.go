package inspect

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// TreeString returns an indented listing of the directory structure rooted
// at startPath, directories suffixed with "/". The listing is embedded into
// generation prompts so the model knows where project files live.
func TreeString(startPath string) (string, error) {
	var lines []string

	err := filepath.WalkDir(startPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(startPath, path)
		if err != nil {
			return err
		}

		depth := 0
		if rel != "." {
			depth = strings.Count(rel, string(filepath.Separator)) + 1
		}
		indent := strings.Repeat("    ", depth)

		name := d.Name()
		if rel == "." {
			name = filepath.Base(startPath)
		}
		if d.IsDir() {
			name += "/"
		}
		lines = append(lines, indent+name)
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.Join(lines, "\n"), nil
}

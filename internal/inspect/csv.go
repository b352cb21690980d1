// Package inspect provides lightweight inspection of input data artifacts:
// CSV structure profiling, row previews for prompt assembly, and directory
// tree listings.
package inspect

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Profile summarizes the structure of an input CSV file. A failed inspection
// is a soft fault: OK is false and Description explains the failure, but the
// caller is expected to continue.
type Profile struct {
	OK          bool
	Columns     []string
	Description string
}

// CSVProfile reads the header of a CSV file and returns its column names.
// Errors never propagate; they are folded into a failed Profile.
func CSVProfile(path string) Profile {
	f, err := os.Open(path)
	if err != nil {
		return Profile{OK: false, Description: fmt.Sprintf("failed to read %q: %v", path, err)}
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return Profile{OK: false, Description: fmt.Sprintf("failed to parse %q as CSV: %v", path, err)}
	}

	return Profile{
		OK:          true,
		Columns:     header,
		Description: fmt.Sprintf("Successfully read %q. Columns: %v.", path, header),
	}
}

// CSVPreview renders the header and up to maxRows data rows of a CSV file
// for embedding into a generation prompt.
func CSVPreview(path string, maxRows int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open sample file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var sb strings.Builder
	for i := 0; i <= maxRows; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read sample file: %w", err)
		}
		sb.WriteString(strings.Join(record, ","))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

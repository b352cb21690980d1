package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/azournas/art-agent/internal/inspect"
	"github.com/azournas/art-agent/internal/pipeline"
)

func TestPrintProfile_OK(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfile(inspect.Profile{
		OK:      true,
		Columns: []string{"Line Name", "Glucose"},
	})

	out := buf.String()
	assert.Contains(t, out, "Data Profile")
	assert.Contains(t, out, "Line Name")
	assert.Contains(t, out, "Glucose")
}

func TestPrintProfile_Failed(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintProfile(inspect.Profile{
		OK:          false,
		Description: "failed to read input.csv",
	})

	assert.Contains(t, buf.String(), "Inspection failed")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvent(pipeline.Event{Level: pipeline.LevelInfo, Step: 2, Total: 5, Message: "Reading resources..."})
	p.PrintEvent(pipeline.Event{Level: pipeline.LevelError, Message: "synthesis failed"})

	out := buf.String()
	assert.Contains(t, out, "Step 2/5: Reading resources...")
	assert.Contains(t, out, "ERROR: synthesis failed")
}

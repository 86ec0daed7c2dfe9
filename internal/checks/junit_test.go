package checks

import (
	"bytes"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJUnit(t *testing.T) {
	planned := []Check{
		{Name: "connect", Description: "accepts the configured user"},
		{Name: "restores-from-backup", Description: "restores committed rows"},
		{Name: "loses-data-without-backup", Description: "loses rows"},
	}
	results := []Result{
		{Name: "connect", Elapsed: 1500 * time.Millisecond},
		{Name: "restores-from-backup", Err: errors.New("pet absent after restore"), Elapsed: 2 * time.Second},
	}
	started := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, WriteJUnit(&buf, "rds", planned, results, started))

	var doc junitSuites
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Suites, 1)

	s := doc.Suites[0]
	assert.Equal(t, "rds", s.Name)
	assert.Equal(t, 3, s.Tests)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, "3.500", s.Time)
	assert.Equal(t, "2026-10-16T12:00:00Z", s.Timestamp)

	require.Len(t, s.Cases, 3)
	assert.Nil(t, s.Cases[0].Failure)
	assert.Equal(t, "1.500", s.Cases[0].Time)
	require.NotNil(t, s.Cases[1].Failure)
	assert.Equal(t, "restores committed rows", s.Cases[1].Failure.Message)
	assert.Equal(t, "pet absent after restore", s.Cases[1].Failure.Body)
	assert.NotNil(t, s.Cases[2].Skipped)
}

func TestWriteJUnitFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "rds.xml")
	require.NoError(t, WriteJUnitFile(path, "rds", []Check{{Name: "connect"}}, []Result{{Name: "connect"}}, time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<testcase name="connect" classname="rds"`)
}

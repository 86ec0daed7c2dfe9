package checks

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

type junitSuites struct {
	XMLName xml.Name     `xml:"testsuites"`
	Suites  []junitSuite `xml:"testsuite"`
}

type junitSuite struct {
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *struct{}     `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

// WriteJUnit writes results as a JUnit XML report. Checks in planned that
// have no result are reported as skipped.
func WriteJUnit(w io.Writer, suite string, planned []Check, results []Result, started time.Time) error {
	byName := make(map[string]Result, len(results))
	var total time.Duration
	for _, r := range results {
		byName[r.Name] = r
		total += r.Elapsed
	}

	s := junitSuite{
		Name:      suite,
		Tests:     len(planned),
		Time:      seconds(total),
		Timestamp: started.UTC().Format(time.RFC3339),
	}
	for _, c := range planned {
		tc := junitCase{Name: c.Name, Classname: suite}
		r, ran := byName[c.Name]
		switch {
		case !ran:
			s.Skipped++
			tc.Skipped = &struct{}{}
			tc.Time = seconds(0)
		case r.Err != nil:
			s.Failures++
			tc.Failure = &junitFailure{Message: c.Description, Body: r.Err.Error()}
			tc.Time = seconds(r.Elapsed)
		default:
			tc.Time = seconds(r.Elapsed)
		}
		s.Cases = append(s.Cases, tc)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(junitSuites{Suites: []junitSuite{s}}); err != nil {
		return fmt.Errorf("encoding junit report: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteJUnitFile writes the report to path, creating parent directories.
func WriteJUnitFile(path, suite string, planned []Check, results []Result, started time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating junit report: %w", err)
	}
	if err := WriteJUnit(f, suite, planned, results, started); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

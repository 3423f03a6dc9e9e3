package persistence

import (
	"fmt"
	"path/filepath"
	"time"
)

// TimestampedReportPath builds "<dir>/<job>-<RFC3339-ish>.json", the
// convention used for every job's final report artifact.
func TimestampedReportPath(dir, job string, at time.Time) string {
	stamp := at.UTC().Format("20060102T150405Z")
	return filepath.Join(dir, fmt.Sprintf("%s-%s.json", job, stamp))
}

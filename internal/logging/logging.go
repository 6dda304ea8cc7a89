package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SessionLayout is the timestamp format in session log names.
const SessionLayout = "20060102_150405"

// LogFilePath names the log for a session: <logsDir>/<app>.<start>.log.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(logsDir, appName+"."+sessionStart.Format(SessionLayout)+".log")
}

// OpenSessionLog creates logsDir if needed and opens the session log for
// appending. A file left by an earlier session with the same name is kept
// as <name>.old.
func OpenSessionLog(logsDir, appName string, sessionStart time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, appName, sessionStart)
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".old"); err != nil {
			return nil, path, fmt.Errorf("keep previous log: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, path, fmt.Errorf("open log file: %w", err)
	}
	return f, path, nil
}

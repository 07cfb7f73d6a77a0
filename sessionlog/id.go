package sessionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	dateLayout = "2006-01-02"
	filePrefix = "session-"
	fileSuffix = ".log"
)

// NewSessionID returns <unix-millis>-<pid>-<random>. The time and pid keep ids
// readable and roughly sortable; the random suffix separates concurrent
// invocations within one process and millisecond.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), os.Getpid(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// SessionPath returns the log file path for a session started at startedAt.
func SessionPath(root, sessionID string, startedAt time.Time) string {
	return filepath.Join(root, startedAt.Format(dateLayout), fileName(sessionID))
}

func fileName(sessionID string) string {
	return filePrefix + sessionID + fileSuffix
}

// sessionIDFromFile extracts the id from a session file name.
func sessionIDFromFile(name string) (string, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	return id, id != ""
}

// validSessionID rejects ids that could escape the log root.
func validSessionID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".." && !strings.Contains(id, "..")
}

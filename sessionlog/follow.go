package sessionlog

import (
	"context"
	"encoding/json"
	"io"

	"github.com/hpcloud/tail"

	"github.com/grovetools/spawn/errors"
)

// Follow streams the entries of a session log to fn as they are written,
// starting from the first entry. It returns after delivering session_end,
// when ctx is done, or when fn returns an error.
func Follow(ctx context.Context, root, sessionID string, fn func(Entry) error) error {
	path, err := FindSession(root, sessionID)
	if err != nil {
		return err
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		MustExist: true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to follow session log").
			WithDetail("path", path)
	}
	defer t.Cleanup()
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			var entry Entry
			if err := json.Unmarshal([]byte(line.Text), &entry); err != nil {
				continue
			}
			if err := fn(entry); err != nil {
				return err
			}
			if entry.Type == EntrySessionEnd {
				return nil
			}
		}
	}
}

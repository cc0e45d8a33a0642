package state

import (
	"encoding/json"
	"os"
	"time"

	"git.home.luguber.info/inful/codemap/internal/foundation/errors"
)

// LockInfo is the content of the in-progress marker.
type LockInfo struct {
	RunID     string    `json:"run_id"`
	PID       int       `json:"pid"`
	Host      string    `json:"host"`
	StartedAt time.Time `json:"started_at"`
}

// RunLock is the ownership of the state for one run.
type RunLock struct {
	path string
	Info LockInfo
}

func (js *JSONStore) lockPath() string { return js.path + ".inprogress" }

// Lock takes exclusive ownership of the state for runID. An existing marker,
// whether from a live run or a crashed one, fails with StateLocked.
func (js *JSONStore) Lock(runID string) (*RunLock, error) {
	if err := os.MkdirAll(js.dir, 0o755); err != nil {
		return nil, ioFailure(err, "failed to create state directory", js.dir)
	}
	host, _ := os.Hostname()
	info := LockInfo{RunID: runID, PID: os.Getpid(), Host: host, StartedAt: time.Now().UTC()}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to marshal lock").Build()
	}

	path := js.lockPath()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, js.lockedError(path)
		}
		return nil, ioFailure(err, "failed to create in-progress marker", path)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, ioFailure(err, "failed to write in-progress marker", path)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, ioFailure(err, "failed to write in-progress marker", path)
	}
	return &RunLock{path: path, Info: info}, nil
}

func (js *JSONStore) lockedError(path string) error {
	b := errors.StateLocked("another run owns the state (in-progress marker present)").
		WithContext("marker", path)
	if holder, err := js.LockHolder(); err == nil && holder != nil {
		b = b.WithContext("run_id", holder.RunID).
			WithContext("pid", holder.PID).
			WithContext("host", holder.Host).
			WithContext("started_at", holder.StartedAt.Format(time.RFC3339))
	}
	return b.Build()
}

// LockHolder reads the current marker; nil when no marker exists.
func (js *JSONStore) LockHolder() (*LockInfo, error) {
	data, err := os.ReadFile(js.lockPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BreakLock removes a stale marker left by a crashed run.
func (js *JSONStore) BreakLock() error {
	if err := os.Remove(js.lockPath()); err != nil && !os.IsNotExist(err) {
		return ioFailure(err, "failed to remove in-progress marker", js.lockPath())
	}
	return nil
}

// Release removes the marker. Calling it more than once is harmless.
func (l *RunLock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

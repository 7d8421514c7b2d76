// Package store implements the Atomic JSON Store (spec §4.1): the only
// writer of persisted files. Every commit writes to a temp file in the
// same directory, fsyncs it, renames over the target, then fsyncs the
// directory — no partial write is ever observable.
package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/cleohq/cleo/internal/errs"
	"github.com/cleohq/cleo/internal/types"
)

// Read loads a JSON document from path into dst. Readers take no lock
// (§4.1 Read safety); callers reading the project document specifically
// should use ReadProjectChecked instead, which also validates the checksum.
func Read(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.New(errs.CodeNotFound, "store file not found: %s", path)
		}
		return errs.Wrap(errs.CodeInternal, err, "reading %s", path)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errs.Wrap(errs.CodeInternal, err, "decoding %s", path)
	}
	return nil
}

// IsNotExist reports whether err is the CodeNotFound wrapping Read produces
// for a missing file, letting callers distinguish "doesn't exist yet" from
// a real decode/IO failure.
func IsNotExist(err error) bool {
	e := errs.AsError(err)
	return e != nil && e.Code == errs.CodeNotFound
}

// WriteAtomic serialises doc as canonical JSON and commits it via
// write-to-temp, fsync, rename, fsync-directory. No lock is taken here;
// callers that need exclusivity wrap the call in WithLock/WithMultiLock.
func WriteAtomic(path string, doc interface{}) error {
	data, err := canonicalJSON(doc)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "encoding %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errs.Wrap(errs.CodeInternal, err, "creating directory %s", dir)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d", filepath.Base(path), rand.Int63()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errs.Wrap(errs.CodeInternal, err, "creating temp file %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errs.Wrap(errs.CodeInternal, err, "writing temp file %s", tmp)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errs.Wrap(errs.CodeInternal, err, "fsyncing temp file %s", tmp)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errs.Wrap(errs.CodeInternal, err, "closing temp file %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errs.Wrap(errs.CodeInternal, err, "renaming %s over %s", tmp, path)
	}

	if dirF, err := os.Open(dir); err == nil {
		_ = dirF.Sync()
		_ = dirF.Close()
	}
	return nil
}

// canonicalJSON serialises with object keys sorted where Go's encoding/json
// already guarantees map-key ordering, and leaves arrays untouched. Structs
// marshal in field-declaration order, matching the teacher's convention of
// stable, diff-friendly JSON documents.
func canonicalJSON(doc interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Checksum computes the first 16 hex characters of SHA-256 over the
// canonical encoding of v, matching §3.2 rule 9's `_meta.checksum`.
func Checksum(v interface{}) (string, error) {
	data, err := canonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16], nil
}

// ReadProjectChecked reads the project document and validates its stamped
// `_meta.checksum` against the recomputed checksum of its task list (§4.1
// Read safety). On mismatch it retries once (re-reading the file, in case a
// concurrent writer was mid-rename) before giving up; a mismatch that
// survives the retry is not fatal — it is returned as a non-empty warning
// alongside the first read's document, for the caller to surface in its
// response envelope rather than fail the read outright.
func ReadProjectChecked(path string) (*types.Project, string, error) {
	proj, err := readProject(path)
	if err != nil {
		return nil, "", err
	}
	if proj.Meta.Checksum == "" {
		return proj, "", nil
	}
	if ok, err := projectChecksumOK(proj); err != nil {
		return nil, "", err
	} else if ok {
		return proj, "", nil
	}

	retry, err := readProject(path)
	if err == nil {
		if ok, err := projectChecksumOK(retry); err == nil && ok {
			return retry, "", nil
		}
	}
	return proj, fmt.Sprintf("%s: stored checksum does not match the task list's recomputed checksum after one retry", errs.CodeChecksumMismatch), nil
}

func readProject(path string) (*types.Project, error) {
	var proj types.Project
	if err := Read(path, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

func projectChecksumOK(proj *types.Project) (bool, error) {
	want, err := Checksum(proj.Tasks)
	if err != nil {
		return false, err
	}
	return want == proj.Meta.Checksum, nil
}

// WithLock acquires an exclusive advisory lock on path (blocking, with the
// given deadline) and runs fn. If the lock cannot be acquired in time, fn
// is never called and LOCK_TIMEOUT is returned.
func WithLock(path string, deadline time.Duration, fn func() error) error {
	return WithMultiLock([]string{path}, deadline, fn)
}

// WithMultiLock acquires exclusive locks on every path, in a stable total
// order (lexicographic on the lock file path) to prevent deadlock, then
// runs fn. If any lock times out, fn is never called and nothing commits.
func WithMultiLock(paths []string, deadline time.Duration, fn func() error) error {
	ordered := make([]string, len(paths))
	copy(ordered, paths)
	sort.Strings(ordered)

	locks := make([]*flock.Flock, 0, len(ordered))
	defer func() {
		for i := len(locks) - 1; i >= 0; i-- {
			_ = locks[i].Unlock()
		}
	}()

	for _, p := range ordered {
		l := flock.New(p + ".lock")
		locked, err := tryLockWithDeadline(l, deadline)
		if err != nil {
			return errs.Wrap(errs.CodeLockTimeout, err, "acquiring lock for %s", p)
		}
		if !locked {
			return errs.New(errs.CodeLockTimeout, "timed out acquiring lock for %s after %s", p, deadline)
		}
		locks = append(locks, l)
	}

	return fn()
}

func tryLockWithDeadline(l *flock.Flock, deadline time.Duration) (bool, error) {
	deadlineAt := time.Now().Add(deadline)
	backoff := 10 * time.Millisecond
	for {
		locked, err := l.TryLock()
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
		if time.Now().After(deadlineAt) {
			return false, nil
		}
		time.Sleep(backoff)
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}

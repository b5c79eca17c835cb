package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is created in the output root to serialize token reservation
// across processes.
const LockFileName = ".reelsmith.lock"

// ClaimsDirName holds one empty marker per handed-out token so a run that
// never wrote an artifact still keeps its token.
const ClaimsDirName = ".reelsmith-claims"

const (
	lockRetryDelay = 50 * time.Millisecond
	maxTokenSuffix = 1000
)

// Reserver hands out run tokens that no other run, past or concurrent, has
// used for any artifact.
type Reserver struct {
	layout    Layout
	lockPath  string
	claimsDir string
	now       func() time.Time
}

// ReserverOption customizes a Reserver.
type ReserverOption func(*Reserver)

// WithClock overrides the time source used for the token.
func WithClock(now func() time.Time) ReserverOption {
	return func(r *Reserver) {
		if now != nil {
			r.now = now
		}
	}
}

// NewReserver returns a Reserver that locks <outputDir>/.reelsmith.lock.
func NewReserver(layout Layout, outputDir string, opts ...ReserverOption) *Reserver {
	r := &Reserver{
		layout:    layout,
		lockPath:  filepath.Join(outputDir, LockFileName),
		claimsDir: filepath.Join(outputDir, ClaimsDirName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reserve picks the token for the current local time, appending _1, _2, ...
// when an artifact or claim with that token already exists. The token is
// claimed by a marker under the claims directory, never by an artifact file.
func (r *Reserver) Reserve(ctx context.Context) (Set, error) {
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return Set{}, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(r.lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return Set{}, fmt.Errorf("acquire artifact lock %s: %w", r.lockPath, err)
	}
	if !locked {
		return Set{}, fmt.Errorf("acquire artifact lock %s: not acquired", r.lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.MkdirAll(r.claimsDir, 0o755); err != nil {
		return Set{}, fmt.Errorf("create claims directory: %w", err)
	}

	base := r.now().Local().Format(TokenLayout)
	for suffix := 0; suffix < maxTokenSuffix; suffix++ {
		token := base
		if suffix > 0 {
			token = base + "_" + strconv.Itoa(suffix)
		}
		set := r.layout.Paths(token)
		if len(set.Existing()) > 0 {
			continue
		}
		file, err := os.OpenFile(filepath.Join(r.claimsDir, token), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return Set{}, fmt.Errorf("claim run token %s: %w", token, err)
		}
		if err := file.Close(); err != nil {
			return Set{}, fmt.Errorf("claim run token %s: %w", token, err)
		}
		return set, nil
	}
	return Set{}, fmt.Errorf("no free run token for %s after %d attempts", base, maxTokenSuffix)
}

// Package lifecycle opens and releases the link regions served by the mumblelink command.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/srediag/mumblelink/internal/logging"
	"github.com/srediag/mumblelink/pkg/mumble"
)

// Opener maps one link region. mumble.OpenWithOptions is the production opener.
type Opener func(ctx context.Context, opts mumble.OpenOptions) (*mumble.Link, error)

// RetryOptions configures OpenWithRetry.
type RetryOptions struct {
	// Attempts bounds the number of open calls, at least one is made.
	Attempts uint64
	// InitialInterval and MaxInterval shape the exponential backoff between attempts.
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// Opener overrides mumble.OpenWithOptions.
	Opener Opener
	Logger *logging.Logger
}

// DefaultRetryOptions retries five times starting at 200ms.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		Attempts:        5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Permanent reports whether an open failure cannot be fixed by retrying.
func Permanent(err error) bool {
	return errors.Is(err, mumble.ErrDisabled) || errors.Is(err, mumble.ErrNameEncoding)
}

// OpenWithRetry opens a link, retrying platform failures with exponential backoff.
// Disabled and unrepresentable names fail on the first attempt.
func OpenWithRetry(ctx context.Context, opts mumble.OpenOptions, ro RetryOptions) (*mumble.Link, error) {
	opener := ro.Opener
	if opener == nil {
		opener = mumble.OpenWithOptions
	}
	logger := ro.Logger
	if logger == nil {
		logger = logging.Internal
	}
	if ro.Attempts == 0 {
		ro.Attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if ro.InitialInterval > 0 {
		eb.InitialInterval = ro.InitialInterval
	}
	if ro.MaxInterval > 0 {
		eb.MaxInterval = ro.MaxInterval
	}
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, ro.Attempts-1), ctx)

	op := func() (*mumble.Link, error) {
		link, err := opener(ctx, opts)
		if err != nil && Permanent(err) {
			return nil, backoff.Permanent(err)
		}
		return link, err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warnf("open link %q failed, retry in %s: %v", opts.Name, wait, err)
	}
	link, err := backoff.RetryNotifyWithData(op, b, notify)
	if err != nil {
		return nil, fmt.Errorf("open link %q: %w", opts.Name, err)
	}
	return link, nil
}

// Set is the collection of open links, keyed by name.
type Set struct {
	mu    sync.Mutex
	links map[string]*mumble.Link
	order []string
}

// OpenAll opens every name. Disabled and repeated names are skipped; any other failure
// closes the links opened so far.
func OpenAll(ctx context.Context, names []string, base mumble.OpenOptions, ro RetryOptions) (*Set, error) {
	s := &Set{links: make(map[string]*mumble.Link, len(names))}
	for _, name := range names {
		if _, ok := s.links[name]; ok {
			logging.Internal.Warnf("link %q listed twice, opened once", name)
			continue
		}
		opts := base
		opts.Name = name
		link, err := OpenWithRetry(ctx, opts, ro)
		if errors.Is(err, mumble.ErrDisabled) {
			logging.Internal.Infof("link %q disabled", name)
			continue
		}
		if err != nil {
			if cerr := s.Close(); cerr != nil {
				logging.Internal.Warnf("close links after failed open: %v", cerr)
			}
			return nil, err
		}
		s.links[name] = link
		s.order = append(s.order, name)
	}
	return s, nil
}

// Names returns the open link names in open order.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Get returns the named link.
func (s *Set) Get(name string) (*mumble.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[name]
	return link, ok
}

// Len returns the number of open links.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

// Close closes every link and empties the set.
func (s *Set) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, name := range s.order {
		if err := s.links[name].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", name, err))
		}
	}
	s.links = map[string]*mumble.Link{}
	s.order = nil
	return errors.Join(errs...)
}

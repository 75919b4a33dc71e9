package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/linkplate/backend/internal/models"
)

// Resolver looks a profile up by username. It prefers the privileged
// accessor (authoritative, bypasses the restricted role) but bounds the wait
// and falls back to the unprivileged store on any miss, error, or timeout,
// so public pages stay available when the privileged path is down.
type Resolver struct {
	privileged ProfileReader // nil when credentials are absent
	store      ProfileReader
}

// NewResolver accepts a nil privileged reader; "accessor unavailable" is
// treated the same as "accessor call failed".
func NewResolver(privileged, store ProfileReader) *Resolver {
	return &Resolver{privileged: privileged, store: store}
}

// ResolveByUsername races the privileged lookup against budget and falls
// back to the store. budget <= 0 awaits the privileged path without a timer.
// A miss from both tiers is ErrProfileNotFound, a normal outcome.
func (r *Resolver) ResolveByUsername(ctx context.Context, username string, budget time.Duration) (*models.Profile, error) {
	if r.privileged != nil {
		if prof, ok := r.tryPrivileged(ctx, username, budget); ok {
			return prof, nil
		}
	}

	prof, err := r.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	return prof, nil
}

type lookupResult struct {
	prof *models.Profile
	err  error
}

// tryPrivileged returns (profile, true) only on a hit within budget. The
// timer winning cancels the in-flight call's context; a late result lands in
// the buffered channel and is discarded.
func (r *Resolver) tryPrivileged(ctx context.Context, username string, budget time.Duration) (*models.Profile, bool) {
	pctx := ctx
	cancel := context.CancelFunc(func() {})
	if budget > 0 {
		pctx, cancel = context.WithTimeout(ctx, budget)
	}
	defer cancel()

	ch := make(chan lookupResult, 1)
	go func() {
		prof, err := r.privileged.GetByUsername(pctx, username)
		ch <- lookupResult{prof: prof, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if !errors.Is(res.err, ErrProfileNotFound) {
				log.Printf("[Resolver] privileged lookup failed username=%s err=%v", username, res.err)
			}
			return nil, false
		}
		return res.prof, true
	case <-pctx.Done():
		log.Printf("[Resolver] privileged lookup timed out username=%s budget=%s", username, budget)
		return nil, false
	}
}

package media

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dlnacast/receiverd/internal/probe"
)

// Validator probes candidate media URIs for accessibility before they
// are accepted as a playback source.
type Validator struct {
	client   *http.Client
	attempts int
	timeout  time.Duration
	backoff  time.Duration
	log      zerolog.Logger
}

// NewValidator creates a reachability validator with the given retry
// bounds: attempts per URI, per-attempt timeout, wait between attempts.
func NewValidator(attempts int, timeout, backoff time.Duration, log zerolog.Logger) *Validator {
	return &Validator{
		client:   &http.Client{},
		attempts: attempts,
		timeout:  timeout,
		backoff:  backoff,
		log:      log,
	}
}

// Validate probes uri with bounded retries and returns nil when it is
// reachable. Non-network URIs (local references) are trusted without
// probing: the engine cannot know local-resource semantics, so the
// caller is responsible for them.
func (v *Validator) Validate(ctx context.Context, uri string) error {
	parsed, err := url.Parse(uri)
	if err != nil || !isNetworkScheme(parsed.Scheme) {
		return nil
	}

	err = probe.Retry(ctx, v.attempts, v.timeout, v.backoff, func(attemptCtx context.Context) error {
		return v.head(attemptCtx, uri)
	})
	if err != nil {
		v.log.Warn().Str("uri", uri).Err(err).Msg("Media URI unreachable")
		return fmt.Errorf("media unreachable: %w", err)
	}

	return nil
}

// head issues a single existence probe.
func (v *Validator) head(ctx context.Context, uri string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uri, nil)
	if err != nil {
		return err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	// Some servers reject HEAD outright; that still proves the host
	// serves the path
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusMethodNotAllowed {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	return nil
}

// isNetworkScheme reports whether the URI scheme is probeable.
func isNetworkScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

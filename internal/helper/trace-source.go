package helper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/exp/trace"

	apiError "github.com/maratig/gcpause/api/error"
)

const (
	// streamDuration is requested from endpoints which trace for a given number of seconds, e.g. /debug/pprof/trace
	streamDuration = 10 * time.Hour
	retryInterval  = 5 * time.Millisecond
)

var errUnavailable = errors.New("trace endpoint is unavailable")

// OpenTrace opens a Go execution trace stored in a file or served by an http(s) endpoint. An endpoint answering
// with 5xx is polled again until retryFor passes. The returned Closer releases the underlying file or response
func OpenTrace(ctx context.Context, sourcePath string, retryFor time.Duration) (*trace.Reader, io.Closer, error) {
	switch {
	case ctx == nil:
		return nil, nil, apiError.ErrNilContext
	case sourcePath == "":
		return nil, nil, apiError.ErrEmptySourcePath
	case retryFor <= 0:
		return nil, nil, errors.New("retry period must be positive")
	}

	var (
		src io.ReadCloser
		err error
	)
	if endpoint, ok := endpointURL(sourcePath); ok {
		src, err = fetchTrace(ctx, endpoint, retryFor)
	} else {
		src, err = os.Open(sourcePath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open trace source %q; %w", sourcePath, err)
	}

	r, err := trace.NewReader(bufio.NewReader(src))
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("%q is not a readable Go execution trace; %w", sourcePath, err)
	}

	return r, src, nil
}

// endpointURL reports whether sourcePath is an http(s) URL and returns it with the tracing duration set
func endpointURL(sourcePath string) (string, bool) {
	u, err := url.Parse(sourcePath)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	q := u.Query()
	if !q.Has("seconds") {
		q.Set("seconds", strconv.Itoa(int(streamDuration/time.Second)))
	}
	u.RawQuery = q.Encode()

	return u.String(), true
}

func fetchTrace(ctx context.Context, endpoint string, retryFor time.Duration) (io.ReadCloser, error) {
	giveUp := time.Now().Add(retryFor)
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		body, err := requestTrace(ctx, endpoint)
		if !errors.Is(err, errUnavailable) {
			return body, err
		}
		if time.Now().After(giveUp) {
			return nil, fmt.Errorf("gave up after %s; %w", retryFor, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// requestTrace returns the body of a 200 answer. The request is bound to ctx only: it lives as long as the trace
// is streamed
func requestTrace(ctx context.Context, endpoint string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp.Body, nil
	case resp.StatusCode >= http.StatusInternalServerError:
		resp.Body.Close()
		return nil, fmt.Errorf("%w; %s", errUnavailable, resp.Status)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected trace response %s", resp.Status)
	}
}

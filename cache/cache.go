// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache implements the content-addressed local artifact store
// and the concurrent, single-flight, TTL-aware HTTP(S) fetcher on top
// of it. A Fetcher owns a worker pool, an http.Client, and the on-disk
// layout under a cache root; Fetch and FetchMany are its only entry
// points, everything else is bookkeeping in service of the atomicity,
// single-flight, and freshness guarantees.
package cache

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"resolvecache/cache/internal/lru"
	"resolvecache/credential"
	"resolvecache/resolveerr"
)

// Request describes one URL to materialize locally.
type Request struct {
	URL string
	// Changing marks the URL as subject to TTL-based revalidation under
	// LocalUpdateChanging (typically a SNAPSHOT artifact).
	Changing bool
	// VerifyChecksum controls whether Fetch also fetches URL+".sha1" and
	// verifies it (SHA-1 preferred, no-checksum accepted when the
	// sidecar cannot be fetched).
	VerifyChecksum bool
}

// Result is the outcome of materializing one Request.
type Result struct {
	Request Request
	Path    string // local path, valid only if Err == nil
	Trusted bool   // true if a checksum was fetched and verified
	Err     error
}

// Options configures a Fetcher. Zero-value fields take the defaults
// from config.Default(); Options intentionally duplicates a subset of
// config.Config's fields rather than importing config, since cache must
// not depend on the higher-level config package.
type Options struct {
	Root            string
	TTL             time.Duration
	Policies        []Policy
	Concurrency     int
	RetryCount      int
	SSLRetryCount   int
	ConnectTimeout  time.Duration
	ReadTimeout     time.Duration
	// RequestTimeout is the wall-clock budget for one Fetch including
	// all of its retries; zero means no per-request deadline beyond the
	// caller's own context.
	RequestTimeout  time.Duration
	MaxRedirections int
	Credentials     *credential.Store
	Events          FetchEvents
	Transport       http.RoundTripper // overridable for tests
	// RateLimiters, keyed by host, throttles outbound connection
	// attempts per repository origin.
	RateLimiters map[string]*rate.Limiter
}

func (o *Options) setDefaults() {
	if o.TTL == 0 {
		o.TTL = 24 * time.Hour
	}
	if len(o.Policies) == 0 {
		o.Policies = []Policy{LocalUpdateChanging}
	}
	if o.Concurrency == 0 {
		o.Concurrency = 6
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.RetryCount == 0 {
		o.RetryCount = 1
	}
	if o.SSLRetryCount == 0 {
		o.SSLRetryCount = 3
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 60 * time.Second
	}
	if o.MaxRedirections == 0 {
		o.MaxRedirections = 20
	}
	if o.Events == nil {
		o.Events = NopEvents{}
	}
	if o.Credentials == nil {
		o.Credentials = credential.NewStore(nil)
	}
}

// Fetcher is the concurrent, single-flight, content-addressed cache.
type Fetcher struct {
	opts   Options
	client *http.Client
	group  singleflight.Group // single-flight per (root, URL)
	locks  *keyedMutex
	fresh  *lru.Cache[string, time.Time] // in-memory .lastCheck mirror
}

// New constructs a Fetcher rooted at opts.Root.
func New(opts Options) (*Fetcher, error) {
	opts.setDefaults()
	if opts.Root == "" {
		return nil, fmt.Errorf("cache: Options.Root must not be empty")
	}
	if err := os.MkdirAll(opts.Root, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create root: %w", err)
	}
	f := &Fetcher{
		opts:  opts,
		locks: newKeyedMutex(),
		fresh: lru.New[string, time.Time](4096),
	}
	transport := opts.Transport
	if transport == nil {
		dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
		transport = &http.Transport{
			DialContext:           dialer.DialContext,
			ResponseHeaderTimeout: opts.ReadTimeout,
		}
	}
	f.client = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return f.onRedirect(req, via)
		},
	}
	return f, nil
}

// FetchMany materializes every request concurrently on the Fetcher's
// worker pool, bounded by Options.Concurrency. A single request's
// failure does not cancel its siblings: every Result is returned, in
// input order, with its own Err.
func (f *Fetcher) FetchMany(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)
	for i, r := range reqs {
		i, r := i, r
		g.Go(func() error {
			path, trusted, err := f.Fetch(gctx, r)
			results[i] = Result{Request: r, Path: path, Trusted: trusted, Err: err}
			return nil // siblings must keep running regardless of this one's error
		})
	}
	_ = g.Wait()
	return results
}

// Fetch materializes req.URL locally per the configured cache policies,
// returning its local path. It is idempotent: once a non-Update policy
// has been satisfied from the local cache, a second call performs no
// network I/O.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (resultPath string, trusted bool, err error) {
	base, err := localPath(f.opts.Root, req.URL)
	if err != nil {
		return "", false, fmt.Errorf("cache: %w", err)
	}

	if f.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.RequestTimeout)
		defer cancel()
	}

	f.opts.Events.Started(req.URL)
	defer func() {
		if err != nil {
			f.opts.Events.Failed(req.URL, err)
		} else {
			f.opts.Events.Finished(req.URL, resultPath)
		}
	}()

	for _, p := range f.opts.Policies {
		path, tr, ok, perr := f.applyPolicy(ctx, p, req, base)
		if perr != nil {
			return "", false, perr
		}
		if ok {
			return path, tr, nil
		}
	}
	return "", false, fmt.Errorf("cache: %s: %w", req.URL, resolveerr.ErrNotInCache)
}

// applyPolicy evaluates a single policy against the cache state. ok is
// false when this policy declines to produce a result (the caller then
// tries the next policy in the list).
func (f *Fetcher) applyPolicy(ctx context.Context, p Policy, req Request, base string) (path string, trusted bool, ok bool, err error) {
	exists := fileExists(base)
	switch p {
	case LocalOnly:
		if !exists {
			return "", false, false, nil
		}
		return base, sidecarExists(base), true, nil

	case FetchMissing:
		if exists {
			return base, sidecarExists(base), true, nil
		}
		path, trusted, err = f.download(ctx, req, base, nil)
		return path, trusted, err == nil, err

	case Update:
		path, trusted, err = f.download(ctx, req, base, nil)
		return path, trusted, err == nil, err

	case LocalUpdate:
		path, trusted, err = f.revalidateOrDownload(ctx, req, base, true)
		return path, trusted, err == nil, err

	case LocalUpdateChanging:
		if !req.Changing {
			if exists {
				return base, sidecarExists(base), true, nil
			}
			path, trusted, err = f.download(ctx, req, base, nil)
			return path, trusted, err == nil, err
		}
		path, trusted, err = f.revalidateOrDownload(ctx, req, base, false)
		return path, trusted, err == nil, err

	default:
		return "", false, false, fmt.Errorf("cache: unknown policy %v", p)
	}
}

// revalidateOrDownload handles LocalUpdate/LocalUpdateChanging: if the
// file is missing, download unconditionally; if present, honor the TTL
// gate (unless force is set) before issuing a conditional request.
func (f *Fetcher) revalidateOrDownload(ctx context.Context, req Request, base string, force bool) (string, bool, error) {
	if !fileExists(base) {
		return f.download(ctx, req, base, nil)
	}
	if !force && !f.ttlExpired(base) {
		return base, sidecarExists(base), nil
	}
	cond := f.conditionalHeaders(base)
	path, trusted, err := f.download(ctx, req, base, cond)
	if errors.Is(err, errNotModified) {
		f.bumpLastCheck(base)
		return base, sidecarExists(base), nil
	}
	return path, trusted, err
}

// ttlExpired reports whether base's .lastCheck sidecar is older than the
// configured TTL, consulting the in-memory LRU mirror before the
// filesystem.
func (f *Fetcher) ttlExpired(base string) bool {
	if t, ok := f.fresh.Get(base); ok {
		return time.Since(t) > f.opts.TTL
	}
	info, err := os.Stat(lastCheckPath(base))
	if err != nil {
		return true
	}
	f.fresh.Add(base, info.ModTime())
	return time.Since(info.ModTime()) > f.opts.TTL
}

func (f *Fetcher) bumpLastCheck(base string) {
	now := time.Now()
	_ = os.WriteFile(lastCheckPath(base), []byte(now.Format(time.RFC3339)), 0o644)
	f.fresh.Add(base, now)
}

func (f *Fetcher) conditionalHeaders(base string) http.Header {
	h := make(http.Header)
	if info, err := os.Stat(base); err == nil {
		h.Set("If-Modified-Since", info.ModTime().UTC().Format(http.TimeFormat))
	}
	if etag, err := os.ReadFile(base + ".etag"); err == nil {
		h.Set("If-None-Match", string(etag))
	}
	return h
}

var errNotModified = errors.New("cache: not modified")

// download is the single point where network I/O happens: it
// single-flights concurrent callers for the same (root, URL), takes the
// inter-process advisory lock, streams to a .part file, verifies a
// checksum if requested, and atomically renames into place.
func (f *Fetcher) download(ctx context.Context, req Request, base string, condHeaders http.Header) (string, bool, error) {
	type result struct {
		path    string
		trusted bool
	}
	v, err, _ := f.group.Do(f.opts.Root+"\x00"+req.URL, func() (any, error) {
		p, trusted, err := f.downloadLocked(ctx, req, base, condHeaders)
		if err != nil {
			return nil, err
		}
		return result{path: p, trusted: trusted}, nil
	})
	if err != nil {
		return "", false, err
	}
	r := v.(result)
	return r.path, r.trusted, nil
}

func (f *Fetcher) downloadLocked(ctx context.Context, req Request, base string, condHeaders http.Header) (string, bool, error) {
	unlock := f.locks.Lock(base)
	defer unlock()

	if err := os.MkdirAll(dirForFile(base), 0o755); err != nil {
		return "", false, fmt.Errorf("cache: mkdir: %w", err)
	}
	flock, err := acquireFileLock(lockPath(base))
	if err != nil {
		return "", false, fmt.Errorf("cache: lock: %w", err)
	}
	defer flock.Release()

	part := partPath(base)
	status, header, err := f.fetchToFile(ctx, req.URL, part, condHeaders)
	if err != nil {
		os.Remove(part)
		return "", false, err
	}
	if status == http.StatusNotModified {
		os.Remove(part)
		f.bumpLastCheck(base)
		return "", false, errNotModified
	}

	trusted := false
	if req.VerifyChecksum {
		digest, ok, verr := f.verifyChecksum(ctx, req.URL, part)
		if verr != nil {
			// Failure to fetch the checksum demotes to "no checksum":
			// the artifact is kept, just untrusted.
		} else if !ok {
			os.Remove(part)
			return "", false, fmt.Errorf("cache: %s: %w", req.URL, resolveerr.ErrChecksumMismatch)
		} else {
			// The sidecar lands before the rename, so an observer that
			// sees the final file also sees its verified checksum.
			if werr := os.WriteFile(checksumSidecarPath(base, ""), []byte(digest+"\n"), 0o644); werr != nil {
				os.Remove(part)
				return "", false, fmt.Errorf("cache: checksum sidecar: %w", werr)
			}
			trusted = true
		}
	}

	if err := syncAndRename(part, base); err != nil {
		os.Remove(part)
		return "", false, fmt.Errorf("cache: finalize: %w", err)
	}
	if etag := header.Get("ETag"); etag != "" {
		_ = os.WriteFile(base+".etag", []byte(etag), 0o644)
	}
	f.bumpLastCheck(base)
	return base, trusted, nil
}

// verifyChecksum fetches URL+".sha1" (never itself requiring a
// checksum) and compares it against the freshly-downloaded file's own
// digest, returning the expected digest for the sidecar write.
func (f *Fetcher) verifyChecksum(ctx context.Context, artifactURL, localFile string) (string, bool, error) {
	sumBase := checksumSidecarPath(strings.TrimSuffix(localFile, sidecarPart), "")
	if err := os.MkdirAll(dirForFile(sumBase), 0o755); err != nil {
		return "", false, err
	}
	part := partPath(sumBase)
	status, _, err := f.fetchToFile(ctx, artifactURL+".sha1", part, nil)
	if err != nil {
		os.Remove(part)
		return "", false, err
	}
	if status != http.StatusOK {
		os.Remove(part)
		return "", false, fmt.Errorf("checksum fetch: unexpected status %d", status)
	}
	data, err := os.ReadFile(part)
	os.Remove(part)
	if err != nil {
		return "", false, err
	}
	want, err := parseChecksumFile(data)
	if err != nil {
		return "", false, err
	}
	got, err := checksumOf(localFile)
	if err != nil {
		return "", false, err
	}
	return want, strings.EqualFold(want, got), nil
}

// fetchToFile performs the HTTP GET (with retry/backoff) and
// streams the response body into dst, reporting incremental progress
// through FetchEvents.
func (f *Fetcher) fetchToFile(ctx context.Context, rawURL, dst string, condHeaders http.Header) (status int, header http.Header, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, err
	}
	if lim := f.opts.RateLimiters[u.Host]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	const baseBackoff = 250 * time.Millisecond
	var lastErr error
	var normalUsed, sslUsed int
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(float64(baseBackoff) * math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return 0, nil, fmt.Errorf("cache: %s: %w", rawURL, resolveerr.ErrCancelled)
			}
		}
		status, header, err = f.doOnce(ctx, rawURL, condHeaders, dst)
		if err == nil {
			if status == http.StatusOK || status == http.StatusNotModified {
				return status, header, nil
			}
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				return status, header, fmt.Errorf("cache: %s: %w", rawURL, resolveerr.ErrUnauthorized)
			}
			if status == http.StatusNotFound {
				return status, header, fmt.Errorf("cache: %s: %w", rawURL, resolveerr.ErrNotFound)
			}
			if status < 500 {
				return status, header, fmt.Errorf("cache: %s: unexpected status %d", rawURL, status)
			}
			lastErr = fmt.Errorf("cache: %s: server status %d", rawURL, status)
		} else {
			lastErr = err
			if ctx.Err() != nil {
				return 0, nil, fmt.Errorf("cache: %s: %w", rawURL, resolveerr.ErrCancelled)
			}
		}

		// SSL handshake failures draw from their own retry budget
		// (SSLRetryCount, default 3), independent of transport/5xx
		// retries (RetryCount, default 1).
		if isTLSHandshakeError(err) {
			sslUsed++
			if sslUsed > f.opts.SSLRetryCount {
				break
			}
		} else {
			normalUsed++
			if normalUsed > f.opts.RetryCount {
				break
			}
		}
	}
	return 0, nil, fmt.Errorf("cache: %s: %w: %v", rawURL, resolveerr.ErrTransport, lastErr)
}

func (f *Fetcher) doOnce(ctx context.Context, rawURL string, condHeaders http.Header, dst string) (int, http.Header, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, err
	}
	for k, vs := range condHeaders {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	f.attachCredentials(httpReq)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return resp.StatusCode, resp.Header, nil
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, resp.Header, nil
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, nil, err
	}
	defer out.Close()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return 0, nil, werr
			}
			written += int64(n)
			f.opts.Events.Progress(rawURL, written)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return 0, nil, rerr
		}
	}
	return resp.StatusCode, resp.Header, nil
}

// attachCredentials adds a Basic auth header when a configured
// credential matches the request's host/scheme.
func (f *Fetcher) attachCredentials(req *http.Request) {
	c, ok := f.opts.Credentials.Match(req.URL.Hostname(), req.URL.Scheme, "")
	if !ok {
		return
	}
	req.SetBasicAuth(c.Username, c.Password)
}

// onRedirect enforces the redirect policy: at most MaxRedirections
// hops, and credentials attached to the original host are dropped on a
// cross-host redirect unless the matching credential has PassOnRedirect
// set.
func (f *Fetcher) onRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.opts.MaxRedirections {
		return fmt.Errorf("cache: stopped after %d redirects", f.opts.MaxRedirections)
	}
	orig := via[0]
	if req.URL.Hostname() != orig.URL.Hostname() {
		c, ok := f.opts.Credentials.Match(orig.URL.Hostname(), orig.URL.Scheme, "")
		if ok && c.PassOnRedirect {
			// The original host's credential follows the redirect; the
			// net/http client itself drops Authorization cross-host, so
			// it must be re-set on the outgoing request here.
			req.SetBasicAuth(c.Username, c.Password)
		} else {
			req.Header.Del("Authorization")
		}
		return nil
	}
	f.attachCredentials(req)
	return nil
}

// isTLSHandshakeError reports whether err originated from the TLS
// handshake rather than from request/response handling, so it can draw
// from the separate SSLRetryCount budget.
func isTLSHandshakeError(err error) bool {
	if err == nil {
		return false
	}
	var recordErr tls.RecordHeaderError
	var certErr *tls.CertificateVerificationError
	var hostErr x509.HostnameError
	var unknownAuthErr x509.UnknownAuthorityError
	switch {
	case errors.As(err, &recordErr), errors.As(err, &certErr),
		errors.As(err, &hostErr), errors.As(err, &unknownAuthErr):
		return true
	}
	return strings.Contains(err.Error(), "tls:")
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func sidecarExists(base string) bool {
	return fileExists(checksumSidecarPath(base, ""))
}

func dirForFile(p string) string {
	i := strings.LastIndexAny(p, `/\`)
	if i < 0 {
		return "."
	}
	return p[:i]
}

// syncAndRename fsyncs src and renames it to dst, so any observer that
// sees dst via the atomic rename also sees fully-flushed bytes.
func syncAndRename(src, dst string) error {
	f, err := os.OpenFile(src, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

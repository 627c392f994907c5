// Package fetch downloads playlist documents with a hard size cap. It is
// the bounded-download collaborator the pipeline assumes: it hands raw
// playlist text to the parser and never interprets it.
package fetch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/sync/errgroup"

	"github.com/gonzague/TV-Playlist-Cleaner/internal/httpclient"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/log"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/metrics"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/playlist"
	"github.com/gonzague/TV-Playlist-Cleaner/internal/safeurl"
)

// ErrTooLarge reports a document that grew past the configured cap while
// streaming. The partial body is discarded.
var ErrTooLarge = errors.New("playlist exceeds size limit")

const defaultMaxBytes = 50 << 20

// Options configures playlist downloads.
type Options struct {
	Client    *http.Client
	UserAgent string
	MaxBytes  int64 // hard cap per document; <=0 uses the 50 MiB default
}

func (o Options) maxBytes() int64 {
	if o.MaxBytes <= 0 {
		return defaultMaxBytes
	}
	return o.MaxBytes
}

func (o Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return httpclient.Default()
}

// Document is one fetched playlist body tagged with its source.
type Document struct {
	Source playlist.Source
	Body   []byte
}

// Fetch retrieves one playlist document. http(s) URLs are downloaded with
// one retry on 429/5xx; bare paths and file:// URLs are read from disk.
// Both honor the size cap.
func Fetch(ctx context.Context, src playlist.Source, opts Options) (Document, error) {
	switch safeurl.Scheme(src.URL) {
	case "http", "https":
		return fetchHTTP(ctx, src, opts)
	case "file":
		u, err := url.Parse(src.URL)
		if err != nil {
			return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
		}
		return fetchLocal(src, u.Path, opts)
	case "":
		return fetchLocal(src, src.URL, opts)
	}
	return Document{}, fmt.Errorf("source %s: unsupported scheme %q", src.Name, safeurl.Scheme(src.URL))
}

func fetchHTTP(ctx context.Context, src playlist.Source, opts Options) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}
	// Ask for compressed transfer ourselves so the cap applies to the
	// decoded bytes, not the wire bytes.
	req.Header.Set("Accept-Encoding", "gzip, br")

	resp, err := httpclient.DoWithRetry(ctx, opts.client(), req, httpclient.DefaultRetryPolicy)
	if err != nil {
		return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Document{}, fmt.Errorf("source %s: unexpected status %d", src.Name, resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
	}
	data, err := readCapped(body, opts.maxBytes())
	if err != nil {
		return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
	}
	if looksLikeHTML(data) {
		return Document{}, fmt.Errorf("source %s: response is an HTML page, not a playlist", src.Name)
	}
	return Document{Source: src, Body: data}, nil
}

func fetchLocal(src playlist.Source, path string, opts Options) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
	}
	defer f.Close()

	data, err := readCapped(f, opts.maxBytes())
	if err != nil {
		return Document{}, fmt.Errorf("source %s: %w", src.Name, err)
	}
	return Document{Source: src, Body: data}, nil
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		return zr, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
}

// readCapped reads at most max bytes and fails with ErrTooLarge if the
// stream has more. Reading max+1 is how we tell "exactly max" from "over".
func readCapped(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w (over %d bytes)", ErrTooLarge, max)
	}
	return data, nil
}

// looksLikeHTML sniffs provider error pages served with a 200: login walls
// and Cloudflare interstitials are the usual offenders.
func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	s := strings.ToLower(strings.TrimSpace(string(head)))
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html")
}

// fetchParallelism bounds concurrent source downloads; playlists are few
// and large, so a small fan-out is plenty.
const fetchParallelism = 4

// LoadAll fetches every source concurrently and parses each body. A source
// that fails to load or parse is logged and counted, not fatal; LoadAll
// only errors when nothing loaded. Entries come back numbered in source
// declaration order regardless of download completion order.
func LoadAll(ctx context.Context, srcs []playlist.Source, opts Options) ([]playlist.Entry, Stats, error) {
	logger := log.WithComponent("fetch")
	stats := Stats{Sources: len(srcs)}
	if len(srcs) == 0 {
		return nil, stats, errors.New("no sources to load")
	}

	type loaded struct {
		doc Document
		err error
	}
	results := make([]loaded, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for i, src := range srcs {
		g.Go(func() error {
			doc, err := Fetch(gctx, src, opts)
			results[i] = loaded{doc: doc, err: err}
			return nil // per-source failures are data, not group failures
		})
	}
	_ = g.Wait()

	var entries []playlist.Entry
	for i, res := range results {
		src := srcs[i]
		if res.err != nil {
			stats.Failed++
			metrics.IncSourceLoaded("failure")
			logger.Warn().Err(res.err).Str("source", src.Name).Msg("source unavailable")
			continue
		}
		parsed, err := playlist.Parse(bytes.NewReader(res.doc.Body), src, len(entries))
		if err != nil {
			stats.Failed++
			metrics.IncSourceLoaded("failure")
			logger.Warn().Err(err).Str("source", src.Name).Msg("source unparseable")
			continue
		}
		stats.Loaded++
		stats.Skipped += parsed.Skipped
		metrics.IncSourceLoaded("success")
		metrics.AddEntriesParsed(src.Name, len(parsed.Entries))
		metrics.AddParseSkips(src.Name, parsed.Skipped)
		logger.Info().
			Str("source", src.Name).
			Int("entries", len(parsed.Entries)).
			Int("skipped", parsed.Skipped).
			Msg("source loaded")
		entries = append(entries, parsed.Entries...)
	}

	if stats.Loaded == 0 {
		return nil, stats, fmt.Errorf("all %d sources failed to load", len(srcs))
	}
	return entries, stats, nil
}

// Stats summarizes one LoadAll pass for the report.
type Stats struct {
	Sources int
	Loaded  int
	Failed  int
	Skipped int // malformed line pairs across all loaded sources
}

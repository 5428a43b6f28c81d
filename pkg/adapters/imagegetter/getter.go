// Package imagegetter resolves image references to decoded images.
//
// A reference may be a storage reference or file path, a data: URI, a bare
// base64 payload, or an http(s) URL. A bare host such as "example.com/page"
// is fetched over https. HTML pages are followed to their representative
// image once, falling back to the site favicon.
package imagegetter

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/framekit/pkg/pipeline"
	"github.com/user/framekit/pkg/ports"
)

// DefaultMaxBytes bounds the size of fetched payloads.
const DefaultMaxBytes = 64 << 20

// DefaultUserAgent is sent with http requests.
const DefaultUserAgent = "framekit/1.0"

// Options configures a Getter.
type Options struct {
	MaxBytes  int64
	Timeout   time.Duration
	UserAgent string
}

// Getter implements ports.ImageGetter.
type Getter struct {
	storage ports.Storage
	decoder ports.ImageDecoder
	parser  ports.HTMLImageParser
	client  *http.Client
	opts    Options
	logger  ports.Logger
}

// New creates a Getter. storage and parser may be nil; without storage only
// inline data and URLs resolve, and without parser HTML pages are unreachable.
func New(storage ports.Storage, decoder ports.ImageDecoder, parser ports.HTMLImageParser, logger ports.Logger, opts Options) *Getter {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Getter{
		storage: storage,
		decoder: decoder,
		parser:  parser,
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		logger:  logger.WithComponent("imagegetter"),
	}
}

// WithHTTPClient replaces the http client.
func (g *Getter) WithHTTPClient(c *http.Client) *Getter {
	g.client = c
	return g
}

// GetImage loads and decodes the image behind ref, fitting it within maxSize
// when maxSize is non-zero.
func (g *Getter) GetImage(ctx context.Context, ref string, maxSize ports.Size) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, unreachable(ref, fmt.Errorf("empty reference"))
	}

	data, err := g.load(ctx, ref, true)
	if err != nil {
		return nil, err
	}
	return g.decoder.Decode(ctx, data, ports.DecodeConstraints{MaxWidth: maxSize.Width, MaxHeight: maxSize.Height})
}

func (g *Getter) load(ctx context.Context, ref string, followHTML bool) ([]byte, error) {
	if err := pipeline.Cancelled(ctx, "get image"); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err := decodeDataURI(ref)
		if err != nil {
			return nil, unreachable("data uri", err)
		}
		return data, nil
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return g.fetch(ctx, ref, followHTML)
	}

	if g.storage != nil {
		data, err := g.storage.Read(ctx, ref)
		if err == nil {
			return data, nil
		}
		if pipeline.IsKind(err, pipeline.KindCancelled) {
			return nil, err
		}
		g.logger.Debug("Reference %s not in storage: %v", ref, err)
	}

	if data, err := base64.StdEncoding.DecodeString(ref); err == nil && looksLikeImage(data) {
		return data, nil
	}
	if looksLikeHost(ref) {
		return g.fetch(ctx, "https://"+ref, followHTML)
	}
	return nil, unreachable(ref, fmt.Errorf("reference does not resolve"))
}

func (g *Getter) fetch(ctx context.Context, rawURL string, followHTML bool) ([]byte, error) {
	g.logger.Debug("Fetching %s", rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, unreachable(rawURL, err)
	}
	req.Header.Set("User-Agent", g.opts.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindUnreachableReference, "fetch "+rawURL, ctxOr(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, unreachable(rawURL, fmt.Errorf("status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.opts.MaxBytes+1))
	if err != nil {
		return nil, pipeline.Wrap(pipeline.KindUnreachableReference, "fetch "+rawURL, ctxOr(ctx, err))
	}
	if int64(len(data)) > g.opts.MaxBytes {
		return nil, pipeline.NewError(pipeline.KindResourceExhausted, "fetch "+rawURL,
			fmt.Errorf("payload exceeds %d bytes", g.opts.MaxBytes))
	}

	if !isHTML(resp.Header.Get("Content-Type"), data) {
		return data, nil
	}
	if !followHTML || g.parser == nil {
		return nil, unreachable(rawURL, fmt.Errorf("html page is not an image"))
	}

	pageURL := resp.Request.URL
	imageURL, err := g.parser.ImageURL(data, pageURL.String())
	if err != nil {
		if !errors.Is(err, ports.ErrNoImage) {
			return nil, unreachable(rawURL, err)
		}
		imageURL = pageURL.ResolveReference(&url.URL{Path: "/favicon.ico"}).String()
	}
	g.logger.Debug("Page %s resolved to %s", rawURL, imageURL)
	return g.load(ctx, imageURL, false)
}

func isHTML(contentType string, data []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt == "text/html" || mt == "application/xhtml+xml"
	}
	return strings.HasPrefix(http.DetectContentType(data), "text/html")
}

// looksLikeHost reports whether ref reads as a scheme-less web address:
// a dotted host name or an IP address, optionally with a port and path.
// Names whose last label is an image extension are file names, not hosts.
func looksLikeHost(ref string) bool {
	if strings.ContainsAny(ref, " \t\\") || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, ".") {
		return false
	}
	u, err := url.Parse("https://" + ref)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if net.ParseIP(host) != nil {
		return true
	}
	dot := strings.LastIndexByte(host, '.')
	if dot <= 0 {
		return false
	}
	tld := host[dot+1:]
	if len(tld) < 2 || strings.Trim(strings.ToLower(tld), "abcdefghijklmnopqrstuvwxyz") != "" {
		return false
	}
	if _, err := ports.ParseImageFormat(tld); err == nil && u.Path == "" {
		return false
	}
	return true
}

func looksLikeImage(data []byte) bool {
	return strings.HasPrefix(http.DetectContentType(data), "image/")
}

// decodeDataURI decodes "data:[<mediatype>][;base64],<data>".
func decodeDataURI(uri string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(payload)
		}
		return data, err
	}
	return bytes.Clone([]byte(payload)), nil
}

func ctxOr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func unreachable(ref string, err error) error {
	return pipeline.NewError(pipeline.KindUnreachableReference, "get "+ref, fmt.Errorf("%w: %v", pipeline.ErrUnreachable, err))
}

var _ ports.ImageGetter = (*Getter)(nil)

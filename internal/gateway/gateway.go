// Package gateway wraps every outbound call to the remote API.
//
// A request passes an ordered pipeline: transformers augment it before it
// is sent, classifiers map the outcome to a domain error. A classified
// failure is logged, counted and published on the event bus before it is
// returned to the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"dreamfront/internal/domain"
	"dreamfront/internal/event"
	"dreamfront/internal/logger"
)

const (
	instrumentationName = "dreamfront/internal/gateway"
	maxErrorBody        = 1 << 20
)

// Config is fixed at construction.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	ContentType string
}

// Publisher receives the gateway's side effects.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// Gateway sends requests to the remote API.
type Gateway struct {
	base         *url.URL
	contentType  string
	client       *http.Client
	transformers []Transformer
	classifiers  []Classifier
	bus          Publisher
	log          *slog.Logger
	tracer       trace.Tracer
	failures     metric.Int64Counter
	duration     metric.Float64Histogram
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the HTTP client. The configured timeout is applied to it.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithTransformers appends request transformers.
func WithTransformers(ts ...Transformer) Option {
	return func(g *Gateway) { g.transformers = append(g.transformers, ts...) }
}

// WithClassifiers replaces the classification table.
func WithClassifiers(cs ...Classifier) Option {
	return func(g *Gateway) { g.classifiers = cs }
}

// WithPublisher sets where side effects are published.
func WithPublisher(p Publisher) Option {
	return func(g *Gateway) { g.bus = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) { g.log = l }
}

// WithTracerProvider sets the tracer provider. The global provider is the default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) { g.tracer = tp.Tracer(instrumentationName) }
}

// WithMeterProvider sets the meter provider. The global provider is the default.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(g *Gateway) { g.initMetrics(mp.Meter(instrumentationName)) }
}

// New creates a gateway.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	ct := cfg.ContentType
	if ct == "" {
		ct = "application/json"
	}

	g := &Gateway{
		base:        base,
		contentType: ct,
		classifiers: DefaultClassifiers(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	if cfg.Timeout > 0 {
		c := *g.client
		c.Timeout = cfg.Timeout
		g.client = &c
	}
	if g.log == nil {
		g.log = logger.Discard()
	}
	g.log = g.log.With(logger.Component("gateway"))
	if g.tracer == nil {
		g.tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	if g.failures == nil {
		g.initMetrics(otel.GetMeterProvider().Meter(instrumentationName))
	}
	return g, nil
}

func (g *Gateway) initMetrics(m metric.Meter) {
	var err error
	if g.failures, err = m.Int64Counter("dreamfront.gateway.failures",
		metric.WithDescription("Classified outbound request failures.")); err != nil {
		otel.Handle(err)
	}
	if g.duration, err = m.Float64Histogram("dreamfront.gateway.duration",
		metric.WithDescription("Outbound request duration."), metric.WithUnit("s")); err != nil {
		otel.Handle(err)
	}
}

// Do sends in as a JSON body (when non-nil) and decodes a JSON response into
// out (when non-nil).
func (g *Gateway) Do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	res, err := g.Send(ctx, method, path, body, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if out == nil || res.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		derr := &domain.Error{
			Kind:   domain.KindUnknown,
			Status: res.StatusCode,
			Op:     method + " " + path,
			Err:    fmt.Errorf("decode response: %w", err),
		}
		g.react(ctx, method, path, "", derr)
		return derr
	}
	return nil
}

// Send issues a request and returns the raw response. path is relative to
// the base URL and may carry a query. header values are copied onto the
// request before the transformers run.
//
// On a classified HTTP failure the response is returned alongside the error
// with its body buffered, so it can still be relayed.
func (g *Gateway) Send(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	op := method + " " + path
	ctx, span := g.tracer.Start(ctx, "gateway "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()
	start := time.Now()

	target, err := g.resolve(path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &domain.Error{Kind: domain.KindUnknown, Op: op, Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &domain.Error{Kind: domain.KindUnknown, Op: op, Err: err}
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", g.contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	for _, t := range g.transformers {
		if err := t(req); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, &domain.Error{Kind: domain.KindUnknown, Op: op, Err: fmt.Errorf("prepare request: %w", err)}
		}
	}

	res, sendErr := g.client.Do(req)
	if sendErr != nil {
		res = nil
	}
	derr := classify(g.classifiers, res, sendErr)
	status := 0
	if res != nil {
		status = res.StatusCode
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	g.record(ctx, method, status, derr, time.Since(start))

	if derr == nil {
		return res, nil
	}

	derr.Op = op
	if res != nil {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		_ = res.Body.Close()
		res.Body = io.NopCloser(bytes.NewReader(buf))
		if derr.Detail == "" {
			derr.Detail = serverDetail(buf)
		}
	}
	span.SetAttributes(attribute.String("error.type", derr.Kind.String()))
	span.SetStatus(codes.Error, derr.Kind.String())
	if derr.Err != nil {
		span.RecordError(derr.Err)
	}

	g.react(ctx, method, path, bearerToken(req), derr)
	return res, derr
}

// react performs the global side effects of a classified failure. credential
// is the access token the failed request carried, empty when it had none.
func (g *Gateway) react(ctx context.Context, method, path, credential string, derr *domain.Error) {
	if errors.Is(derr.Err, context.Canceled) {
		g.log.DebugContext(ctx, "request canceled", logger.Method(method), logger.Path(path))
		return
	}

	g.log.WarnContext(ctx, "request failed",
		logger.Method(method),
		logger.Path(path),
		logger.Status(derr.Status),
		slog.String("kind", derr.Kind.String()),
		logger.Error(derr.Err))

	if g.bus == nil {
		return
	}
	pctx := context.WithoutCancel(ctx)
	if derr.Kind == domain.KindAuthentication {
		inv := event.Invalidation{Method: method, Path: path, Status: derr.Status, Credential: credential}
		if err := g.bus.Publish(pctx, event.New(event.TopicSessionInvalidated, inv)); err != nil {
			g.log.ErrorContext(ctx, "publish session invalidation", logger.Error(err))
		}
	}
	if IsQuiet(ctx) {
		return
	}
	f := event.Failure{Kind: derr.Kind, Status: derr.Status, Method: method, Path: path, Detail: derr.Detail}
	if err := g.bus.Publish(pctx, event.New(event.TopicNotification, f)); err != nil {
		g.log.ErrorContext(ctx, "publish notification", logger.Error(err))
	}
}

func (g *Gateway) record(ctx context.Context, method string, status int, derr *domain.Error, elapsed time.Duration) {
	attrs := []attribute.KeyValue{attribute.String("http.request.method", method)}
	if status != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", status))
	}
	if derr != nil {
		kindAttrs := append(attrs, attribute.String("error.type", derr.Kind.String()))
		if g.failures != nil {
			g.failures.Add(ctx, 1, metric.WithAttributes(kindAttrs...))
		}
	}
	if g.duration != nil {
		g.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	}
}

func (g *Gateway) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("path %q must be relative", path)
	}
	u := *g.base
	u.Path = strings.TrimRight(g.base.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}

// serverDetail extracts {"detail": ...} or {"message": ...} from an error body.
func serverDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
			return items[0].Msg
		}
	}
	return payload.Message
}

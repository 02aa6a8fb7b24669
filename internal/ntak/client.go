// Package ntak talks to the NTAK RMS interface: it wraps payloads with the
// service identity header, signs them and posts them.
package ntak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/ntak-rms/internal/dayclose"
	"github.com/noah-isme/ntak-rms/internal/obs"
	"github.com/noah-isme/ntak-rms/internal/order"
)

const (
	DefaultBaseURL = "https://rms.tesztntak.hu"

	PathStoreOrders = "/rms/rendeles-osszesito"
	PathCloseDay    = "/rms/napi-zaras"
	PathVerify      = "/rms/ellenorzes"

	HeaderSignature   = "x-jws-signature"
	HeaderCertificate = "x-certificate"
)

var (
	ErrNoProcessingID = errors.New("ntak: response carries no processing id")
	ErrEmptyVerify    = errors.New("ntak: verify response carries no message result")
)

// APIError is returned for non-2xx answers.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ntak: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Doer executes HTTP requests. resilience.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Exchange is one recorded request/response pair.
type Exchange struct {
	Endpoint   string
	Request    []byte
	Signature  string
	StatusCode int
	Response   []byte
	SentAt     time.Time
	Duration   time.Duration
}

// Submission is the answer to a store or close-day call.
type Submission struct {
	ProcessingID string   `json:"feldolgozasAzonosito"`
	Exchange     Exchange `json:"-"`
}

// Client calls the NTAK RMS endpoints.
type Client struct {
	baseURL  string
	identity Identity
	signer   RequestSigner
	http     Doer
	now      func() time.Time

	mu   sync.Mutex
	last Exchange
}

// Option customises a Client.
type Option func(*Client)

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a client. An empty baseURL selects the NTAK test system.
func NewClient(baseURL string, id Identity, signer RequestSigner, doer Doer, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		identity: id,
		signer:   signer,
		http:     doer,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StoreOrders submits order summaries.
func (c *Client) StoreOrders(ctx context.Context, payloads ...order.Payload) (Submission, error) {
	msg := OrderMessage{Header: NewHeader(c.identity, c.now()), Orders: payloads}
	return c.submit(ctx, PathStoreOrders, msg)
}

// CloseDay submits a daily closing.
func (c *Client) CloseDay(ctx context.Context, closing dayclose.Payload) (Submission, error) {
	msg := DayCloseMessage{Header: NewHeader(c.identity, c.now()), Closing: closing}
	return c.submit(ctx, PathCloseDay, msg)
}

// Verify asks for the processing result of a submission.
func (c *Client) Verify(ctx context.Context, processingID string) (VerifyResponse, Exchange, error) {
	msg := VerifyMessage{
		Header:        NewHeader(c.identity, c.now()),
		ProcessingIDs: []processingRef{{ProcessingID: processingID}},
	}
	ex, err := c.post(ctx, PathVerify, msg)
	if err != nil {
		return VerifyResponse{}, ex, err
	}
	var env verifyEnvelope
	if err := json.Unmarshal(ex.Response, &env); err != nil {
		return VerifyResponse{}, ex, fmt.Errorf("ntak: decode verify response: %w", err)
	}
	if len(env.Responses) == 0 {
		return VerifyResponse{}, ex, ErrEmptyVerify
	}
	resp := env.Responses[0]
	if resp.ProcessingID == "" {
		resp.ProcessingID = processingID
	}
	obs.RecordVerifyStatus(string(resp.Status))
	return resp, ex, nil
}

// LastExchange returns the most recent request/response pair.
func (c *Client) LastExchange() Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Client) submit(ctx context.Context, path string, msg any) (Submission, error) {
	ex, err := c.post(ctx, path, msg)
	if err != nil {
		return Submission{Exchange: ex}, err
	}
	var sub Submission
	if err := json.Unmarshal(ex.Response, &sub); err != nil {
		return Submission{Exchange: ex}, fmt.Errorf("ntak: decode %s response: %w", path, err)
	}
	sub.Exchange = ex
	if sub.ProcessingID == "" {
		return sub, ErrNoProcessingID
	}
	return sub, nil
}

func (c *Client) post(ctx context.Context, path string, msg any) (ex Exchange, err error) {
	ctx, span := otel.Tracer("ntak.Client").Start(ctx, "NTAK "+path)
	defer span.End()
	span.SetAttributes(attribute.String("ntak.endpoint", path))

	ex = Exchange{Endpoint: path, SentAt: c.now()}
	start := time.Now()
	defer func() {
		ex.Duration = time.Since(start)
		result := "ok"
		if err != nil {
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		obs.RecordNTAKRequest(path, result, obs.DurationMillis(ex.Duration))
		c.mu.Lock()
		c.last = ex
		c.mu.Unlock()
	}()

	body, err := json.Marshal(msg)
	if err != nil {
		return ex, fmt.Errorf("ntak: encode %s: %w", path, err)
	}
	ex.Request = body
	sig, err := c.signer.Sign(body)
	if err != nil {
		return ex, err
	}
	ex.Signature = sig

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return ex, fmt.Errorf("ntak: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderSignature, sig)
	req.Header.Set(HeaderCertificate, c.signer.Certificate())

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return ex, fmt.Errorf("ntak: %s: %w", path, err)
	}
	defer resp.Body.Close()
	ex.StatusCode = resp.StatusCode
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	ex.Response, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ex, fmt.Errorf("ntak: read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ex, &APIError{Endpoint: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(ex.Response))}
	}
	return ex, nil
}

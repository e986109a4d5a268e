// Package api is the HTTP client of the inspection REST API.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dmitrijs2005/vistoria/internal/client/models"
	"github.com/dmitrijs2005/vistoria/internal/logging"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a non-2xx response. Message is the server's {"error"} text.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
}

type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
	// Logger receives resty's own diagnostics. Nil discards them.
	Logger logging.Logger
}

// Client talks to the inspection API. Uploads go through a separate resty
// client without transport retries: a multipart body built from a stream
// cannot be replayed.
type Client struct {
	http   *resty.Client
	upload *resty.Client
}

func New(o Options) *Client {
	if o.Logger == nil {
		o.Logger = logging.NewTextSlogLogger(io.Discard, slog.LevelError)
	}
	return &Client{
		http:   newResty(o, o.RetryCount),
		upload: newResty(o, 0),
	}
}

func newResty(o Options, retries int) *resty.Client {
	c := resty.New().
		SetLogger(restyLogger{l: o.Logger.With("component", "api")}).
		SetBaseURL(strings.TrimRight(o.BaseURL, "/")).
		SetTimeout(o.Timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Accept", "application/json")
	if o.Token != "" {
		c.SetAuthToken(o.Token)
	}
	return c
}

// restyLogger adapts logging.Logger to resty.Logger.
type restyLogger struct {
	l logging.Logger
}

func (r restyLogger) Errorf(format string, v ...any) {
	r.l.Error(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Warnf(format string, v ...any) {
	r.l.Warn(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r restyLogger) Debugf(format string, v ...any) {
	r.l.Debug(context.Background(), strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &Error{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	return apiErr
}

func (c *Client) Health(ctx context.Context) error {
	return check(c.request(ctx).Get("/healthz"))
}

func (c *Client) ListCards(ctx context.Context) ([]models.CardTemplate, error) {
	var out []models.CardTemplate
	if err := check(c.request(ctx).SetResult(&out).Get("/cards")); err != nil {
		return nil, err
	}
	return out, nil
}

// ListInspections returns the inspections of corretorID, or all when empty.
func (c *Client) ListInspections(ctx context.Context, corretorID string) ([]models.Inspection, error) {
	var out []models.Inspection
	req := c.request(ctx).SetResult(&out)
	if corretorID != "" {
		req.SetQueryParam("corretor_id", corretorID)
	}
	if err := check(req.Get("/inspections")); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInspection(ctx context.Context, id string) (*models.Inspection, error) {
	var out models.Inspection
	if err := check(c.request(ctx).SetResult(&out).SetPathParam("id", id).Get("/inspections/{id}")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInspection(ctx context.Context, in models.NewInspection) (*models.Inspection, error) {
	var out models.Inspection
	req := c.request(ctx).SetHeader("Content-Type", "application/json").SetBody(in).SetResult(&out)
	if err := check(req.Post("/inspections")); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateInspection(ctx context.Context, p models.InspectionPatch) (*models.Inspection, error) {
	var out models.Inspection
	req := c.request(ctx).SetHeader("Content-Type", "application/json").SetBody(p).SetResult(&out)
	if err := check(req.Post("/inspections/update")); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPhoto sends content as the "photo" part of a multipart request.
// It is attempted once; a transport failure returns ErrUnavailable.
func (c *Client) UploadPhoto(ctx context.Context, inspectionID, cardID, fileName string, content io.Reader) (*models.UploadedPhoto, error) {
	var out models.UploadedPhoto
	req := c.upload.R().SetContext(ctx).SetError(&errorBody{}).
		SetFormData(map[string]string{"inspection_id": inspectionID, "card_id": cardID}).
		SetFileReader("photo", fileName, content).
		SetResult(&out)
	if err := check(req.Post("/inspections/upload-photo")); err != nil {
		return nil, err
	}
	return &out, nil
}

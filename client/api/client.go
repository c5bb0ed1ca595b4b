// Package api is the HTTP client the booking controller uses to reach the auth service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vasapolrittideah/vivah-booking-api/client/booking"
	authtypes "github.com/vasapolrittideah/vivah-booking-api/services/auth-service/pkg/types"
)

// Error is a non-2xx response from the service.
type Error struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Is lets callers match 401 responses with errors.Is(err, booking.ErrAuthRequired).
func (e *Error) Is(target error) bool {
	return target == booking.ErrAuthRequired && e.Status == http.StatusUnauthorized
}

type Client struct {
	baseURL string
	client  *http.Client
}

var (
	_ booking.Authenticator  = (*Client)(nil)
	_ booking.PaymentGateway = (*Client)(nil)
)

func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

type meResponse struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type paymentRequest struct {
	PackageTier string    `json:"package_tier,omitempty"`
	VenueID     string    `json:"venue_id"`
	GuestCount  int       `json:"guest_count"`
	ServiceIDs  []string  `json:"service_ids,omitempty"`
	Insurance   bool      `json:"insurance"`
	WeddingDate time.Time `json:"wedding_date"`
	EMIPlan     int       `json:"emi_plan"`
}

type paymentResponse struct {
	Receipt authtypes.PaymentReceipt `json:"receipt"`
}

type errorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retry_after"`
}

func (c *Client) Register(ctx context.Context, email, password string) (*authtypes.Session, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (*authtypes.Session, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*authtypes.Session, error) {
	var out authResponse
	if err := c.do(ctx, http.MethodPost, path, "", credentialsRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}

	return &authtypes.Session{
		Token:     out.Token,
		UserID:    out.UserID,
		Email:     out.Email,
		ExpiresAt: out.ExpiresAt,
	}, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func (c *Client) Me(ctx context.Context, token string) (*authtypes.Identity, error) {
	var out meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		return nil, err
	}

	return &authtypes.Identity{UserID: out.User.ID, Email: out.User.Email}, nil
}

func (c *Client) Pay(ctx context.Context, token string, req booking.PaymentRequest) (*authtypes.PaymentReceipt, error) {
	body := paymentRequest{
		PackageTier: req.PackageTier,
		VenueID:     req.VenueID,
		GuestCount:  req.GuestCount,
		ServiceIDs:  req.ServiceIDs,
		Insurance:   req.Insurance,
		WeddingDate: req.WeddingDate,
		EMIPlan:     req.EMIPlan,
	}

	var out paymentResponse
	if err := c.do(ctx, http.MethodPost, "/payments", token, body, &out); err != nil {
		return nil, err
	}

	return &out.Receipt, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, Message: resp.Status}

	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.RetryAfter = time.Duration(body.RetryAfter) * time.Second
	}

	return apiErr
}

// IsRateLimited reports whether err is a 429 and how long the server asked to wait.
func IsRateLimited(err error) (time.Duration, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return apiErr.RetryAfter, true
	}
	return 0, false
}

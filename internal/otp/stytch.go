package otp

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

	"item-server/internal/config"
)

const (
	sendPath         = "/v1/otps/sms/login_or_create"
	authenticatePath = "/v1/otps/authenticate"
	codeExpiryMins   = 10
)

// StytchClient talks to the Stytch one-time passcode API.
type StytchClient struct {
	projectID string
	secret    string
	baseURL   string
	http      *http.Client
}

func NewStytchClient(cfg config.StytchConfig, httpClient *http.Client) (*StytchClient, error) {
	if cfg.ProjectID == "" || cfg.Secret == "" {
		return nil, errors.New("otp: stytch project_id and secret are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &StytchClient{
		projectID: cfg.ProjectID,
		secret:    cfg.Secret,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
	}, nil
}

type sendRequest struct {
	PhoneNumber   string `json:"phone_number"`
	ExpirationMin int    `json:"expiration_minutes"`
}

type sendResponse struct {
	PhoneID string `json:"phone_id"`
}

type authenticateRequest struct {
	MethodID string `json:"method_id"`
	Code     string `json:"code"`
}

type authenticateResponse struct {
	User struct {
		PhoneNumbers []struct {
			PhoneID     string `json:"phone_id"`
			PhoneNumber string `json:"phone_number"`
		} `json:"phone_numbers"`
	} `json:"user"`
}

type stytchError struct {
	StatusCode   int    `json:"status_code"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

func (e *stytchError) Error() string {
	return fmt.Sprintf("stytch: %d %s: %s", e.StatusCode, e.ErrorType, e.ErrorMessage)
}

func (c *StytchClient) Send(ctx context.Context, phone string) (string, error) {
	var resp sendResponse
	err := c.post(ctx, sendPath, sendRequest{PhoneNumber: phone, ExpirationMin: codeExpiryMins}, &resp)
	if err != nil {
		return "", err
	}
	if resp.PhoneID == "" {
		return "", errors.New("stytch: response carries no phone_id")
	}
	return resp.PhoneID, nil
}

func (c *StytchClient) Verify(ctx context.Context, methodID, code string) (Result, error) {
	var resp authenticateResponse
	err := c.post(ctx, authenticatePath, authenticateRequest{MethodID: methodID, Code: code}, &resp)
	if err != nil {
		var serr *stytchError
		if errors.As(err, &serr) && serr.StatusCode >= 400 && serr.StatusCode < 500 {
			return Result{}, ErrInvalidCode
		}
		return Result{}, err
	}

	for _, p := range resp.User.PhoneNumbers {
		if p.PhoneID == methodID {
			return Result{Verified: true, Phone: p.PhoneNumber}, nil
		}
	}
	return Result{}, errors.New("stytch: verified phone missing from response")
}

func (c *StytchClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.projectID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("stytch request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		serr := &stytchError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, serr)
		serr.StatusCode = resp.StatusCode
		return serr
	}

	return json.Unmarshal(data, out)
}

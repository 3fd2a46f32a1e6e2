package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const identityToolkitEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// PasswordSignInClient calls the Identity Toolkit signInWithPassword REST
// endpoint, which the Admin SDK does not expose.
type PasswordSignInClient struct {
	APIKey     string
	HTTPClient *http.Client
	Endpoint   string
}

type signInWithPasswordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInWithPasswordResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"profilePicture"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
}

type identityToolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewPasswordSignInClient(apiKey string) *PasswordSignInClient {
	return &PasswordSignInClient{
		APIKey:   apiKey,
		Endpoint: identityToolkitEndpoint,
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

func (c *PasswordSignInClient) Enabled() bool {
	return c != nil && strings.TrimSpace(c.APIKey) != ""
}

// SignIn verifies the credentials and returns a fresh ID token.
func (c *PasswordSignInClient) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if !c.Enabled() {
		return nil, ErrSignInNotConfigured
	}

	body, err := json.Marshal(signInWithPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint := c.Endpoint + "?key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr identityToolkitError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return nil, fmt.Errorf("identity toolkit http %d", resp.StatusCode)
		}
		return nil, signInError(resp.StatusCode, apiErr.Error.Message)
	}

	var out signInWithPasswordResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &SignInResult{
		Identity: Identity{
			UID:         out.LocalID,
			Email:       out.Email,
			DisplayName: out.DisplayName,
			PhotoURL:    out.PhotoURL,
		},
		IDToken: out.IDToken,
	}, nil
}

// signInError maps an Identity Toolkit error message to a sentinel. Messages
// may carry a detail suffix ("INVALID_PASSWORD : ...").
func signInError(status int, message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch code {
	case "EMAIL_NOT_FOUND":
		return ErrEmailNotFound
	case "INVALID_PASSWORD":
		return ErrInvalidPassword
	case "USER_DISABLED":
		return ErrUserDisabled
	case "INVALID_LOGIN_CREDENTIALS", "INVALID_EMAIL", "MISSING_PASSWORD":
		return ErrInvalidCredentials
	}
	if status >= 500 {
		return fmt.Errorf("identity toolkit http %d: %s", status, message)
	}
	return fmt.Errorf("%w: %s", ErrInvalidCredentials, message)
}

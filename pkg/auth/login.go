// Package auth signs peers in to obtain the ID tokens the relay verifies.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	secureTokenURL     = "https://securetoken.googleapis.com/v1"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)

// ErrorResponseBody is the response body for an error
// https://firebase.google.com/docs/reference/rest/auth#section-error-format
type ErrorResponseBody struct {
	Error struct {
		Code    int                  `json:"code"`
		Message ErrorResponseMessage `json:"message"`
	} `json:"error"`
}

type ErrorResponseMessage string

const (
	ErrorInvalidEmail            ErrorResponseMessage = "INVALID_EMAIL"
	ErrorInvalidLoginCredentials ErrorResponseMessage = "INVALID_LOGIN_CREDENTIALS"
	ErrorInvalidPassword         ErrorResponseMessage = "INVALID_PASSWORD"
	ErrorEmailNotFound           ErrorResponseMessage = "EMAIL_NOT_FOUND"
	ErrorTokenExpired            ErrorResponseMessage = "TOKEN_EXPIRED"
	ErrorInvalidRefreshToken     ErrorResponseMessage = "INVALID_REFRESH_TOKEN"
)

// Session is a signed in user.
type Session struct {
	UID          string
	IDToken      string
	RefreshToken string
	ExpiresIn    string
}

// FirebaseLoginClient signs in with email and password through the
// Firebase Auth REST API.
type FirebaseLoginClient struct {
	apiKey             string
	httpClient         *http.Client
	identityToolkitURL string
	secureTokenURL     string
}

type NewFirebaseLoginClientOptions struct {
	APIKey     string
	HTTPClient *http.Client
	// BaseURL replaces both Google endpoints, for emulators and tests.
	BaseURL string
}

func NewFirebaseLoginClient(opts NewFirebaseLoginClientOptions) *FirebaseLoginClient {
	c := &FirebaseLoginClient{
		apiKey:             opts.APIKey,
		httpClient:         opts.HTTPClient,
		identityToolkitURL: identityToolkitURL,
		secureTokenURL:     secureTokenURL,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if opts.BaseURL != "" {
		c.identityToolkitURL = strings.TrimSuffix(opts.BaseURL, "/")
		c.secureTokenURL = c.identityToolkitURL
	}
	return c
}

// loginRequestBody is the request body of accounts:signInWithPassword
// https://firebase.google.com/docs/reference/rest/auth#section-sign-in-email-password
type loginRequestBody struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type loginResponseBody struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

func (c *FirebaseLoginClient) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("missing email or password")
	}
	body := bytes.NewBuffer(nil)
	if err := json.NewEncoder(body).Encode(&loginRequestBody{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to encode request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.identityToolkitURL+"/accounts:signInWithPassword?key="+url.QueryEscape(c.apiKey), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp := &loginResponseBody{}
	if err := c.do(req, resp); err != nil {
		return nil, err
	}
	return &Session{
		UID:          resp.LocalID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

// refreshResponseBody is the response body of the token endpoint
// https://firebase.google.com/docs/reference/rest/auth#section-refresh-token
type refreshResponseBody struct {
	ExpiresIn    string `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	UserID       string `json:"user_id"`
}

// Refresh exchanges a refresh token for a new ID token.
func (c *FirebaseLoginClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("missing refresh token")
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.secureTokenURL+"/token?key="+url.QueryEscape(c.apiKey), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp := &refreshResponseBody{}
	if err := c.do(req, resp); err != nil {
		return nil, err
	}
	return &Session{
		UID:          resp.UserID,
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (c *FirebaseLoginClient) do(req *http.Request, v interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorResponse := &ErrorResponseBody{}
		if err := json.NewDecoder(resp.Body).Decode(errorResponse); err != nil {
			return fmt.Errorf("failed to decode error response (%s): %v", resp.Status, err)
		}
		switch errorResponse.Error.Message {
		case ErrorInvalidEmail, ErrorInvalidLoginCredentials, ErrorInvalidPassword, ErrorEmailNotFound:
			return ErrInvalidCredentials
		case ErrorTokenExpired, ErrorInvalidRefreshToken:
			return ErrTokenExpired
		}
		return fmt.Errorf("unhandled error response: %s", errorResponse.Error.Message)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

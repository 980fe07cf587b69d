package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"docvault/internal/apperror"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token and stores it in the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return apperror.Validation(opLogin.name, "email and password are required")
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, opLogin, c.endpoint("auth", "login"), loginRequest{Email: email, Password: password}, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return opLogin.decodeError(errors.New("response has no token"))
	}
	c.session.SetCredential(out.Token)
	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	in := registerRequest{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return apperror.Validation(opRegister.name, "username, email and password are required")
	}
	return c.postJSON(ctx, opRegister, c.endpoint("auth", "register"), in, nil)
}

// Logout forgets the session credential. The backend keeps no server-side
// logout, so no request is sent.
func (c *Client) Logout() {
	c.session.ClearCredential()
}

func (c *Client) postJSON(ctx context.Context, op operation, target string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return apperror.Wrap(apperror.KindValidation, op.name, op.fallback, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return apperror.Wrap(apperror.KindTransportFailure, op.name, op.fallback, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return op.decodeError(err)
	}
	return nil
}

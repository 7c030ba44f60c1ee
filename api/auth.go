package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jonwraymond/storefront/session"
)

var _ session.Authenticator = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) authPath(action string) string {
	return "/auth/" + string(c.actor) + "/" + action
}

// Login signs the actor in. The token comes from the response body or,
// for cookie sessions, from the cookie the backend set; either way it is
// kept for later requests and returned in the identity.
func (c *Client) Login(ctx context.Context, cred session.Credentials) (*session.Identity, error) {
	var raw map[string]any
	req := loginRequest{Email: cred.Email, Password: cred.Password}
	if err := c.Do(ctx, http.MethodPost, c.authPath("login"), nil, req, &raw); err != nil {
		return nil, err
	}

	id := identityFrom(c.actor, raw)
	if id.Token == "" {
		id.Token = c.cookieToken()
	}
	if id.Token != "" {
		c.SetToken(id.Token)
		if claims, err := session.ParseToken(id.Token); err == nil {
			claims.Apply(id)
		}
	}
	if id.Email == "" {
		id.Email = cred.Email
	}
	return id, nil
}

// Profile fetches the signed-in actor's profile.
func (c *Client) Profile(ctx context.Context) (*session.Identity, error) {
	var raw map[string]any
	if err := c.Do(ctx, http.MethodGet, c.authPath("profile"), nil, nil, &raw); err != nil {
		return nil, err
	}
	id := identityFrom(c.actor, raw)
	if id.Token == "" {
		id.Token = c.Token()
	}
	return id, nil
}

// Logout ends the session on the server. The local token is dropped even
// when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if err := c.Do(ctx, http.MethodPost, c.authPath("logout"), nil, nil, nil); err != nil {
		return fmt.Errorf("logout %s: %w", c.actor, err)
	}
	return nil
}

func (c *Client) cookieToken() string {
	names := []string{
		"token", "accessToken", "access_token", "jwt",
		string(c.actor) + "Token", string(c.actor) + "_token",
	}
	for _, ck := range c.http.Jar.Cookies(c.base) {
		for _, name := range names {
			if strings.EqualFold(ck.Name, name) && ck.Value != "" {
				return ck.Value
			}
		}
	}
	return ""
}

// identityFrom reads an identity out of an auth response. The user object
// may be at the top level or under "data", "user" or the actor's name.
func identityFrom(actor session.Actor, raw map[string]any) *session.Identity {
	id := &session.Identity{Actor: actor}
	if raw == nil {
		return id
	}
	if data, ok := raw["data"].(map[string]any); ok {
		raw = data
	}
	id.Token = stringField(raw, "token", "accessToken", "access_token")

	payload := raw
	for _, key := range []string{"user", string(actor), "profile"} {
		if m, ok := raw[key].(map[string]any); ok {
			payload = m
			break
		}
	}

	id.ID = stringField(payload, "id", "_id", "userId")
	id.Email = stringField(payload, "email")
	id.Name = stringField(payload, "name", "username", "fullName")
	id.Role = stringField(payload, "role")

	profile := make(map[string]any, len(payload))
	for k, v := range payload {
		switch k {
		case "password", "token", "accessToken", "access_token":
			continue
		}
		profile[k] = v
	}
	if len(profile) > 0 {
		id.Profile = profile
	}
	return id
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

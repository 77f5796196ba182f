package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Session struct {
	Token   string
	Profile domain.Profile
	Message string
}

func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "auth/login", "", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return Session{}, err
	}
	if resp.Banned {
		return Session{}, &BannedError{Reason: resp.Reason}
	}
	if resp.Token == "" || resp.User == nil {
		return Session{}, fmt.Errorf("%w: login without token or user", ErrMalformed)
	}
	profile, err := resp.User.normalize()
	if err != nil {
		return Session{}, err
	}
	return Session{Token: resp.Token, Profile: profile, Message: resp.Message}, nil
}

// Me fetches the authoritative profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (domain.Profile, error) {
	if token == "" {
		return domain.Profile{}, ErrUnauthorized
	}
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "auth/me", token, nil, &resp); err != nil {
		return domain.Profile{}, err
	}
	if resp.User == nil {
		return domain.Profile{}, fmt.Errorf("%w: auth/me without user", ErrMalformed)
	}
	return resp.User.normalize()
}

func (c *Client) UpdateMe(ctx context.Context, token string, u domain.ProfileUpdate) (domain.Profile, error) {
	if token == "" {
		return domain.Profile{}, ErrUnauthorized
	}
	req := updateMeRequest{
		FullName:    u.FullName,
		Mobile:      u.Mobile,
		SecondPhone: u.SecondPhone,
		Street:      u.Street,
		City:        u.City,
		Area:        u.Area,
		State:       u.State,
		ZipCode:     u.ZipCode,
		Country:     u.Country,
	}
	var resp meResponse
	if err := c.do(ctx, http.MethodPut, "auth/me", token, req, &resp); err != nil {
		return domain.Profile{}, err
	}
	if resp.User == nil {
		return domain.Profile{}, fmt.Errorf("%w: auth/me without user", ErrMalformed)
	}
	return resp.User.normalize()
}

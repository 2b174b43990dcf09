/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth2client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

type parResponse struct {
	RequestURI string `json:"request_uri"`
	ExpiresIn  int    `json:"expires_in"`
}

// parError is the error body an authorization server returns for a rejected pushed request.
type parError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// AuthCodeURLWithPAR pushes the authorization request to parEndpoint and returns an authorization URL
// that references it by request_uri.
func (c *Client) AuthCodeURLWithPAR(
	ctx context.Context,
	cfg oauth2.Config,
	parEndpoint string,
	state string,
	client *http.Client,
	opts ...AuthCodeOption,
) (string, error) {
	v := url.Values{
		"response_type": {"code"},
		"client_id":     {cfg.ClientID},
		"state":         {state},
	}
	if cfg.RedirectURL != "" {
		v.Set("redirect_uri", cfg.RedirectURL)
	}
	if len(cfg.Scopes) > 0 {
		v.Set("scope", strings.Join(cfg.Scopes, " "))
	}

	for _, opt := range opts {
		opt.setValue(v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, parEndpoint, strings.NewReader(v.Encode()))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusCreated {
		var pe parError
		if json.NewDecoder(resp.Body).Decode(&pe) == nil && pe.Code != "" {
			return "", fmt.Errorf("unexpected status code %v: %s %s", resp.StatusCode, pe.Code, pe.Description)
		}

		return "", fmt.Errorf("unexpected status code %v", resp.StatusCode)
	}

	var response parResponse
	if err = json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode pushed authorization response: %w", err)
	}

	if response.RequestURI == "" {
		return "", errors.New("pushed authorization response has no request_uri")
	}

	return fmt.Sprintf("%v?%v", cfg.Endpoint.AuthURL, url.Values{
		"client_id":   {cfg.ClientID},
		"request_uri": {response.RequestURI},
	}.Encode()), nil
}

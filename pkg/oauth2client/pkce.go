/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth2client

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

const (
	defaultLength = 32
	defaultMethod = "S256"
)

// GeneratePKCE returns a random code verifier, its S256 challenge and the challenge method.
func (c *Client) GeneratePKCE() (string, string, string, error) {
	b := make([]byte, defaultLength)
	_, err := rand.Read(b)

	if err != nil {
		return "", "", "", err
	}

	return c.GeneratePKCEFromBytes(b)
}

func (c *Client) GeneratePKCEFromBytes(b []byte) (string, string, string, error) {
	verifier := base64.RawURLEncoding.EncodeToString(b)

	h := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(h[:])

	return verifier, challenge, defaultMethod, nil
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth2client

import (
	"net/url"

	"golang.org/x/oauth2"
)

type setParam struct{ k, v string }

func (p setParam) setValue(m url.Values) { m.Set(p.k, p.v) }

type AuthCodeOption interface {
	setValue(url.Values)
}

func SetAuthURLParam(key, value string) AuthCodeOption {
	return setParam{key, value}
}

// WithPKCEChallenge sets an S256 code challenge derived from verifier.
func WithPKCEChallenge(verifier string) AuthCodeOption {
	return setParam{"code_challenge", oauth2.S256ChallengeFromVerifier(verifier)}
}

// WithPKCEVerifier sets the code verifier sent with the token request.
func WithPKCEVerifier(verifier string) AuthCodeOption {
	return setParam{"code_verifier", verifier}
}

func (c *Client) convertOptions(opt ...AuthCodeOption) []oauth2.AuthCodeOption {
	res := make([]oauth2.AuthCodeOption, 0, len(opt))

	for _, o := range opt {
		p, ok := o.(setParam)
		if !ok {
			continue
		}

		res = append(res, oauth2.SetAuthURLParam(p.k, p.v))
	}

	return res
}

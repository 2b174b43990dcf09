/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential models verifiable credentials held by a wallet. Credentials are immutable once parsed.
package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// Format is a credential format identifier as used in OpenID4VCI/OpenID4VP.
type Format string

// Supported formats.
const (
	JWTVCJSON   Format = "jwt_vc_json"
	JWTVCJSONLD Format = "jwt_vc_json-ld"
	LDPVC       Format = "ldp_vc"
)

// IsJWT reports whether credentials of the format are serialized as compact JWTs.
func (f Format) IsJWT() bool {
	return f == JWTVCJSON || f == JWTVCJSONLD
}

// ParseFailedCode is the code of errors returned by Parse.
const ParseFailedCode = "CREDENTIAL_PARSE_FAILED"

// Error is the error type returned by this package.
type Error = walleterror.Error[string]

// Credential is a parsed verifiable credential.
type Credential struct {
	id         string
	format     Format
	serialized []byte
	vc         []byte
	types      []string
	issuer     string
	subjectIDs []string
}

// ParseOpt configures Parse.
type ParseOpt func(o *parseOpts)

type parseOpts struct {
	format   Format
	resolver api.DIDResolver
}

// WithFormat forces the format instead of detecting it from the content.
func WithFormat(f Format) ParseOpt {
	return func(o *parseOpts) {
		o.format = f
	}
}

// WithProofCheck verifies JWT credential signatures against keys resolved through resolver.
func WithProofCheck(resolver api.DIDResolver) ParseOpt {
	return func(o *parseOpts) {
		o.resolver = resolver
	}
}

// Parse parses a credential serialized as a compact JWT (optionally JSON-quoted) or as a JSON-LD document.
// The input is copied.
func Parse(ctx context.Context, b []byte, opts ...ParseOpt) (*Credential, error) {
	o := &parseOpts{}

	for _, opt := range opts {
		opt(o)
	}

	c, err := parse(ctx, bytes.TrimSpace(b), o)
	if err != nil {
		return nil, walleterror.New(ParseFailedCode, walleterror.MalformedInput, err).
			WithComponent(walleterror.CredentialParserComponent).
			WithOperation("Parse")
	}

	return c, nil
}

func parse(ctx context.Context, b []byte, o *parseOpts) (*Credential, error) {
	if len(b) == 0 {
		return nil, errors.New("empty credential")
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, fmt.Errorf("unquote credential: %w", err)
		}

		b = []byte(s)
	}

	format := o.format
	if format == "" {
		format = JWTVCJSON
		if b[0] == '{' {
			format = LDPVC
		}
	}

	c := &Credential{
		format:     format,
		serialized: append([]byte(nil), b...),
	}

	var err error

	if format.IsJWT() {
		c.vc, err = decodeJWT(ctx, string(b), o.resolver)
	} else {
		c.vc, err = decodeJSON(b)
	}

	if err != nil {
		return nil, err
	}

	c.populate()

	return c, nil
}

func decodeJSON(b []byte) ([]byte, error) {
	if !gjson.ValidBytes(b) || !gjson.ParseBytes(b).IsObject() {
		return nil, errors.New("credential is not a JSON object")
	}

	return append([]byte(nil), b...), nil
}

// decodeJWT returns the VC JSON of a JWT credential. Registered claims fill the VC properties they map to.
func decodeJWT(ctx context.Context, token string, resolver api.DIDResolver) ([]byte, error) {
	// Selective disclosures follow the issuer-signed JWT.
	jws, _, _ := strings.Cut(token, "~")

	var payload map[string]interface{}

	var err error

	if resolver != nil {
		_, err = jwtutil.Verify(ctx, resolver, jws, "", &payload)
	} else {
		_, err = jwtutil.Parse(jws, &payload)
	}

	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal jwt claims: %w", err)
	}

	vc := raw
	if v := gjson.GetBytes(raw, "vc"); v.IsObject() {
		vc = []byte(v.Raw)
	}

	mappings := []struct {
		claim, path string
	}{
		{claim: "jti", path: "id"},
		{claim: "iss", path: "issuer"},
		{claim: "sub", path: "credentialSubject.id"},
	}

	for _, m := range mappings {
		claim := gjson.GetBytes(raw, m.claim)
		if !claim.Exists() || gjson.GetBytes(vc, m.path).Exists() {
			continue
		}

		if m.path == "credentialSubject.id" && gjson.GetBytes(vc, "credentialSubject").IsArray() {
			continue
		}

		if vc, err = sjson.SetBytes(vc, m.path, claim.String()); err != nil {
			return nil, fmt.Errorf("set %s: %w", m.path, err)
		}
	}

	if !gjson.GetBytes(vc, "type").Exists() && !gjson.GetBytes(vc, "credentialSubject").Exists() {
		return nil, errors.New("jwt does not contain a verifiable credential")
	}

	return vc, nil
}

func (c *Credential) populate() {
	vc := gjson.ParseBytes(c.vc)

	c.id = vc.Get("id").String()
	if c.id == "" {
		c.id = "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, c.serialized).String()
	}

	c.types = stringList(vc.Get("type"))

	c.issuer = vc.Get("issuer").String()
	if vc.Get("issuer").IsObject() {
		c.issuer = vc.Get("issuer.id").String()
	}

	subject := vc.Get("credentialSubject")
	if subject.IsArray() {
		for _, s := range subject.Array() {
			if id := s.Get("id").String(); id != "" {
				c.subjectIDs = append(c.subjectIDs, id)
			}
		}
	} else if id := subject.Get("id").String(); id != "" {
		c.subjectIDs = []string{id}
	}
}

func stringList(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}

	if !v.IsArray() {
		return []string{v.String()}
	}

	var out []string
	for _, e := range v.Array() {
		out = append(out, e.String())
	}

	return out
}

// ID returns the credential ID. Credentials without an ID get a stable ID derived from their content.
func (c *Credential) ID() string {
	return c.id
}

// Format returns the credential format.
func (c *Credential) Format() Format {
	return c.format
}

// Serialize returns the credential as received: a compact JWT or a JSON document.
func (c *Credential) Serialize() []byte {
	return append([]byte(nil), c.serialized...)
}

// JSON returns the decoded VC JSON used for matching.
func (c *Credential) JSON() []byte {
	return append([]byte(nil), c.vc...)
}

// Contents returns a fresh decoded copy of the VC JSON.
func (c *Credential) Contents() (map[string]interface{}, error) {
	var m map[string]interface{}

	if err := json.Unmarshal(c.vc, &m); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}

	return m, nil
}

// Types returns the credential types.
func (c *Credential) Types() []string {
	return append([]string(nil), c.types...)
}

// Issuer returns the issuer ID.
func (c *Credential) Issuer() string {
	return c.issuer
}

// SubjectIDs returns the IDs of the credential subjects.
func (c *Credential) SubjectIDs() []string {
	return append([]string(nil), c.subjectIDs...)
}

// HasType reports whether the credential declares type t.
func (c *Credential) HasType(t string) bool {
	for _, ct := range c.types {
		if ct == t {
			return true
		}
	}

	return false
}

// Contexts returns the JSON-LD contexts of the credential.
func (c *Credential) Contexts() []string {
	return stringList(gjson.GetBytes(c.vc, "@context"))
}

// Value returns the value at a gjson path of the VC JSON.
func (c *Credential) Value(path string) gjson.Result {
	return gjson.GetBytes(c.vc, path)
}

// MarshalJSON writes the serialized credential: JWTs as JSON strings, JSON-LD credentials as objects.
func (c *Credential) MarshalJSON() ([]byte, error) {
	if c.format.IsJWT() {
		return json.Marshal(string(c.serialized))
	}

	return append([]byte(nil), c.serialized...), nil
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4vp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// splitAuthorizationRequest returns either the request object passed by value or the URI to fetch it from.
func splitAuthorizationRequest(authorizationRequest string) (string, string, error) {
	s := strings.TrimSpace(authorizationRequest)
	if s == "" {
		return "", "", errors.New("authorization request is empty")
	}

	// A compact JWT never contains a colon, a URI always does.
	if !strings.Contains(s, ":") && (jwtutil.IsJWS(s) || isUnsecuredJWT(s)) {
		return s, "", nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", "", fmt.Errorf("invalid authorization request: %w", err)
	}

	switch u.Scheme {
	case "openid-vc", "openid4vp":
		q := u.Query()

		if r := q.Get("request"); r != "" {
			return r, "", nil
		}

		if r := q.Get("request_uri"); r != "" {
			return "", r, nil
		}

		return "", "", errors.New("authorization request has neither request nor request_uri")
	case "https", "http":
		return "", s, nil
	default:
		return "", "", fmt.Errorf("unsupported authorization request scheme %q", u.Scheme)
	}
}

func isUnsecuredJWT(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] == ""
}

// decodeRequestObject decodes a JSON, unsecured or signed request object. Request objects of DID clients must
// be signed with a key of the client DID.
func (i *Interaction) decodeRequestObject(ctx context.Context, operation, raw string) (*requestObject, *Error) {
	raw = strings.TrimSpace(raw)

	var (
		claims json.RawMessage
		jws    string
		err    error
	)

	switch {
	case strings.HasPrefix(raw, "{"):
		claims = json.RawMessage(raw)
	case jwtutil.IsJWS(raw):
		jws = raw

		if _, err = jwtutil.Parse(raw, &claims); err != nil {
			return nil, malformedRequest(operation, fmt.Errorf("decode request object: %w", err))
		}
	case isUnsecuredJWT(raw):
		claims, err = base64.RawURLEncoding.DecodeString(strings.Split(raw, ".")[1])
		if err != nil {
			return nil, malformedRequest(operation, fmt.Errorf("decode request object: %w", err))
		}
	default:
		return nil, malformedRequest(operation, errors.New("request object is neither JSON nor a JWT"))
	}

	ro := &requestObject{}

	if err = json.Unmarshal(claims, ro); err != nil {
		return nil, malformedRequest(operation, fmt.Errorf("decode request object: %w", err))
	}

	if ro.ClientIDScheme == didScheme || (ro.ClientIDScheme == "" && strings.HasPrefix(ro.ClientID, "did:")) {
		if jws == "" {
			return nil, malformedRequest(operation, errors.New("request object of a DID client must be signed"))
		}

		if e := i.verifyRequestObject(ctx, operation, jws, ro.ClientID); e != nil {
			return nil, e
		}
	}

	return ro, nil
}

func (i *Interaction) verifyRequestObject(ctx context.Context, operation, jws, clientID string) *Error {
	header, err := jwtutil.Parse(jws)
	if err != nil {
		return malformedRequest(operation, err)
	}

	if header.KeyID == "" {
		return malformedRequest(operation, errors.New("signed request object has no kid header"))
	}

	didID, _, _ := strings.Cut(header.KeyID, "#")
	if didID == "" {
		didID = clientID
	}

	if didID != clientID {
		return malformedRequest(operation,
			fmt.Errorf("request object key %s does not belong to client %s", header.KeyID, clientID)).
			WithIncorrectValue(header.KeyID)
	}

	doc, err := i.cfg.DIDResolver.Resolve(ctx, didID)
	if err != nil {
		return newError(ResolutionFailedCode, walleterror.Resolution, operation,
			fmt.Errorf("resolve verifier DID: %w", err)).
			WithIncorrectValue(didID)
	}

	if _, err = jwtutil.Verify(ctx, resolvedDocument{doc: doc}, jws, didID); err != nil {
		return malformedRequest(operation, fmt.Errorf("verify request object: %w", err))
	}

	logger.Debugc(ctx, "Request object signature verified", logfields.WithVerifier(clientID),
		logfields.WithKeyID(header.KeyID))

	return nil
}

// validate checks the parts of the request object a presentation depends on.
func validate(ro *requestObject, now time.Time) (ErrorCode, error) {
	if ro.ClientID == "" {
		return MalformedRequestCode, errors.New("request object has no client_id")
	}

	if !supportedResponseType(ro.ResponseType) {
		return UnsupportedResponseTypeCode, fmt.Errorf("unsupported response_type %q", ro.ResponseType)
	}

	if ro.Nonce == "" {
		return MalformedRequestCode, errors.New("request object has no nonce")
	}

	if ro.responseEndpoint() == "" {
		return MalformedRequestCode, errors.New("request object has neither response_uri nor redirect_uri")
	}

	if ro.Exp != 0 && now.Unix() > ro.Exp {
		return MalformedRequestCode, errors.New("request object has expired")
	}

	if len(ro.presentationDefinition()) == 0 {
		return MalformedRequestCode, errors.New("request object has no presentation definition")
	}

	return "", nil
}

func supportedResponseType(responseType string) bool {
	fields := strings.Fields(responseType)
	if len(fields) == 0 || len(fields) > 2 {
		return false
	}

	seen := map[string]bool{}

	for _, f := range fields {
		if (f != "vp_token" && f != "id_token") || seen[f] {
			return false
		}

		seen[f] = true
	}

	return true
}

// resolvedDocument serves a DID document that has already been resolved.
type resolvedDocument struct {
	doc *did.Document
}

func (r resolvedDocument) Resolve(_ context.Context, id string) (*did.Document, error) {
	if r.doc.ID != id {
		return nil, fmt.Errorf("unexpected DID %s", id)
	}

	return r.doc, nil
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"
	"github.com/valyala/fastjson"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// requestCredentials sends one credential request per offered credential, or a single batch request when the
// issuer supports it and more than one credential is offered.
func (i *interaction) requestCredentials(ctx context.Context, operation string, vm *did.VerificationMethod,
) ([]*credential.Credential, error) {
	req := i.credentialClient(ctx)

	var (
		issued []*issuedCredential
		err    error
	)

	if i.metadata.BatchCredentialEndpoint != "" && len(i.offered) > 1 {
		issued, err = i.requestBatch(ctx, req, vm)
	} else {
		issued, err = i.requestEach(ctx, req, vm)
	}

	if err != nil {
		if errors.Is(err, jwtutil.ErrSign) {
			return nil, i.errors.new(SigningFailedCode, walleterror.Signing, operation, err).
				WithIncorrectValue(vm.ID)
		}

		var parseErr *responseParseError
		if errors.As(err, &parseErr) {
			return nil, i.fail(ctx, i.errors.new(CredentialParseFailedCode, walleterror.MalformedInput,
				operation, err))
		}

		return nil, i.fail(ctx, i.errors.remote(operation, err))
	}

	creds := make([]*credential.Credential, 0, len(issued))
	i.notificationIDs = nil

	for idx, ic := range issued {
		c, err := i.parseCredential(ctx, ic, idx)
		if err != nil {
			return nil, i.fail(ctx, i.errors.new(CredentialParseFailedCode, walleterror.MalformedInput,
				operation, err))
		}

		logger.Debugc(ctx, "Credential issued", logfields.WithCredentialID(c.ID()),
			logfields.WithCredentialTypes(c.Types()))

		creds = append(creds, c)

		if ic.notificationID != "" {
			i.notificationIDs = append(i.notificationIDs, ic.notificationID)
		}
	}

	return creds, nil
}

func (i *interaction) parseCredential(ctx context.Context, ic *issuedCredential, idx int,
) (*credential.Credential, error) {
	var opts []credential.ParseOpt

	if idx < len(i.offered) {
		opts = append(opts, credential.WithFormat(i.offered[idx].Format))
	}

	if !i.cfg.DisableVCProofChecks {
		opts = append(opts, credential.WithProofCheck(i.didResolver))
	}

	return credential.Parse(ctx, ic.raw, opts...)
}

func (i *interaction) requestEach(ctx context.Context, req *httprequest.Request, vm *did.VerificationMethod,
) ([]*issuedCredential, error) {
	endpoint := i.metadata.CredentialEndpoint

	var issued []*issuedCredential

	for idx, oc := range i.offered {
		event := fmt.Sprintf(fetchCredentialEventText, idx+1, len(i.offered), endpoint)

		b, err := i.postWithProof(ctx, req, vm, endpoint, event, func(proof *jwtProof) interface{} {
			r := newCredentialRequest(oc)
			r.Proof = proof

			return r
		})
		if err != nil {
			return nil, err
		}

		v, err := parseResponse(b)
		if err != nil {
			return nil, err
		}

		i.updateNonce(v)

		entries, err := scanCredentialResponse(v)
		if err != nil {
			return nil, err
		}

		issued = append(issued, entries...)
	}

	return issued, nil
}

func (i *interaction) requestBatch(ctx context.Context, req *httprequest.Request, vm *did.VerificationMethod,
) ([]*issuedCredential, error) {
	endpoint := i.metadata.BatchCredentialEndpoint
	event := fmt.Sprintf(fetchBatchCredentialsEventText, len(i.offered), endpoint)

	b, err := i.postWithProof(ctx, req, vm, endpoint, event, func(proof *jwtProof) interface{} {
		batch := &batchCredentialRequest{}

		for _, oc := range i.offered {
			r := newCredentialRequest(oc)
			r.Proof = proof

			batch.CredentialRequests = append(batch.CredentialRequests, r)
		}

		return batch
	})
	if err != nil {
		return nil, err
	}

	v, err := parseResponse(b)
	if err != nil {
		return nil, err
	}

	i.updateNonce(v)

	responses := v.GetArray("credential_responses")
	if len(responses) == 0 {
		return nil, &responseParseError{err: errors.New("batch credential response has no credential_responses")}
	}

	var issued []*issuedCredential

	for _, r := range responses {
		entries, err := scanCredentialResponse(r)
		if err != nil {
			return nil, err
		}

		issued = append(issued, entries...)
	}

	return issued, nil
}

// postWithProof posts the request built around a fresh key proof. An invalid_or_missing_proof answer that
// carries a new c_nonce is retried once.
func (i *interaction) postWithProof(ctx context.Context, req *httprequest.Request, vm *did.VerificationMethod,
	endpoint, event string, build func(proof *jwtProof) interface{},
) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		proof, err := i.createProof(ctx, vm)
		if err != nil {
			return nil, err
		}

		body, err := json.Marshal(build(proof))
		if err != nil {
			return nil, fmt.Errorf("encode credential request: %w", err)
		}

		b, err := req.Do(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(body), nil,
			event, requestCredentialEventText, []int{http.StatusOK, http.StatusCreated},
			remoteErrorHandler("credential"))
		if err == nil {
			return b, nil
		}

		var remoteErr *remoteError
		if attempt == 0 && errors.As(err, &remoteErr) && remoteErr.resp.Error == errInvalidOrMissingProof &&
			remoteErr.resp.CNonce != "" && remoteErr.resp.CNonce != i.cNonce {
			logger.Debugc(ctx, "Retrying credential request with a new nonce", log.WithURL(endpoint))

			i.cNonce = remoteErr.resp.CNonce

			continue
		}

		return nil, err
	}
}

func (i *interaction) createProof(ctx context.Context, vm *did.VerificationMethod) (*jwtProof, error) {
	issuer := i.clientID
	if issuer == "" {
		issuer = i.cfg.ClientID
	}

	claims := &proofClaims{
		Issuer:   issuer,
		Audience: i.metadata.CredentialIssuer,
		IssuedAt: time.Now().Unix(),
		Nonce:    i.cNonce,
	}

	jws, err := jwtutil.Sign(ctx, i.cfg.Signer, vm, claims, jwtutil.WithType(jwtProofTypeHeader))
	if err != nil {
		if errors.Is(err, jwtutil.ErrSign) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", jwtutil.ErrSign, err)
	}

	return &jwtProof{ProofType: proofTypeJWT, JWT: jws}, nil
}

func (i *interaction) updateNonce(v *fastjson.Value) {
	if nonce := v.GetStringBytes("c_nonce"); len(nonce) > 0 {
		i.cNonce = string(nonce)
	}
}

func newCredentialRequest(oc *OfferedCredential) *credentialRequest {
	r := &credentialRequest{Format: string(oc.Format)}

	if oc.Format == credential.JWTVCJSON {
		r.Types = oc.Types
	}

	r.CredentialDefinition = &credentialRequestDefinition{
		Context: oc.Context,
		Type:    oc.Types,
	}

	return r
}

type responseParseError struct {
	err error
}

func (e *responseParseError) Error() string {
	return fmt.Sprintf("credential response: %v", e.err)
}

func (e *responseParseError) Unwrap() error {
	return e.err
}

func parseResponse(b []byte) (*fastjson.Value, error) {
	var p fastjson.Parser

	v, err := p.ParseBytes(b)
	if err != nil {
		return nil, &responseParseError{err: err}
	}

	return v, nil
}

// scanCredentialResponse collects the credentials of a single credential response. The credential is either
// a JSON string (JWT) or an object (JSON-LD); newer issuers return a "credentials" array instead.
func scanCredentialResponse(v *fastjson.Value) ([]*issuedCredential, error) {
	notificationID := string(v.GetStringBytes("notification_id"))
	if notificationID == "" {
		notificationID = string(v.GetStringBytes("ack_id"))
	}

	var entries []*fastjson.Value

	if c := v.Get("credential"); c != nil {
		entries = append(entries, c)
	}

	for _, c := range v.GetArray("credentials") {
		if nested := c.Get("credential"); nested != nil {
			c = nested
		}

		entries = append(entries, c)
	}

	if len(entries) == 0 {
		if v.Exists("transaction_id") || v.Exists("acceptance_token") {
			return nil, &responseParseError{err: errors.New("deferred issuance is not supported")}
		}

		return nil, &responseParseError{err: errors.New("no credential in response")}
	}

	issued := make([]*issuedCredential, 0, len(entries))

	for _, e := range entries {
		issued = append(issued, &issuedCredential{
			raw:            e.MarshalTo(nil),
			notificationID: notificationID,
		})
	}

	return issued, nil
}

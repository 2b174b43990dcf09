/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4vp

import (
	"encoding/json"

	"github.com/trustbloc/wallet-engine/pkg/presexch"
)

// State is the protocol state of an interaction.
type State string

// States.
const (
	StateCreated     State = "created"
	StateQueryIssued State = "query-issued"
	StatePresented   State = "presented"
	StateRejected    State = "rejected"
	StateFailed      State = "failed"
)

type clientIDScheme string

const (
	didScheme         clientIDScheme = "did"
	redirectURIScheme clientIDScheme = "redirect_uri"
)

// Reasons a user may give for not presenting credentials.
const (
	accessDeniedError = "access_denied"

	// NoConsent is sent when the user declined the request.
	NoConsent RejectReason = "no_consent"
	// NoMatchFound is sent when the wallet holds no credentials that satisfy the request.
	NoMatchFound RejectReason = "no_match_found"
)

// RejectReason is the error_description of an access_denied response.
type RejectReason string

type requestObject struct {
	JTI            string          `json:"jti,omitempty"`
	IAT            int64           `json:"iat,omitempty"`
	Exp            int64           `json:"exp,omitempty"`
	Issuer         string          `json:"iss,omitempty"`
	ResponseType   string          `json:"response_type"`
	ResponseMode   string          `json:"response_mode,omitempty"`
	ResponseURI    string          `json:"response_uri,omitempty"`
	Scope          string          `json:"scope,omitempty"`
	Nonce          string          `json:"nonce"`
	ClientID       string          `json:"client_id"`
	ClientIDScheme clientIDScheme  `json:"client_id_scheme,omitempty"`
	State          string          `json:"state,omitempty"`
	ClientMetadata *clientMetadata `json:"client_metadata,omitempty"`

	PresentationDefinition json.RawMessage `json:"presentation_definition,omitempty"`

	// Legacy request objects.
	RedirectURI  string          `json:"redirect_uri,omitempty"`
	Registration *clientMetadata `json:"registration,omitempty"`
	Claims       *struct {
		VPToken struct {
			PresentationDefinition json.RawMessage `json:"presentation_definition,omitempty"`
		} `json:"vp_token"`
	} `json:"claims,omitempty"`
}

func (r *requestObject) responseEndpoint() string {
	if r.ResponseURI != "" {
		return r.ResponseURI
	}

	return r.RedirectURI
}

func (r *requestObject) presentationDefinition() json.RawMessage {
	if len(r.PresentationDefinition) > 0 {
		return r.PresentationDefinition
	}

	if r.Claims != nil {
		return r.Claims.VPToken.PresentationDefinition
	}

	return nil
}

func (r *requestObject) metadata() *clientMetadata {
	if r.ClientMetadata != nil {
		return r.ClientMetadata
	}

	if r.Registration != nil {
		return r.Registration
	}

	return &clientMetadata{}
}

type clientMetadata struct {
	ClientName                  string           `json:"client_name,omitempty"`
	ClientPurpose               string           `json:"client_purpose,omitempty"`
	LogoURI                     string           `json:"logo_uri,omitempty"`
	SubjectSyntaxTypesSupported []string         `json:"subject_syntax_types_supported,omitempty"`
	VPFormats                   *presexch.Format `json:"vp_formats,omitempty"`
}

// VerifierDisplayData describes the verifier to the user.
type VerifierDisplayData struct {
	DID     string `json:"did,omitempty"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	LogoURI string `json:"logo_uri,omitempty"`
}

type idTokenClaims struct {
	VPToken struct {
		PresentationSubmission *presexch.PresentationSubmission `json:"presentation_submission"`
	} `json:"_vp_token"`
	Nonce string `json:"nonce"`
	Iss   string `json:"iss"`
	Sub   string `json:"sub"`
	Aud   string `json:"aud"`
	IAT   int64  `json:"iat"`
	NBF   int64  `json:"nbf"`
	Exp   int64  `json:"exp"`
	JTI   string `json:"jti"`
}

type vpTokenClaims struct {
	VP    map[string]interface{} `json:"vp"`
	Nonce string                 `json:"nonce"`
	Iss   string                 `json:"iss"`
	Aud   string                 `json:"aud"`
	IAT   int64                  `json:"iat"`
	NBF   int64                  `json:"nbf"`
	Exp   int64                  `json:"exp"`
	JTI   string                 `json:"jti"`
}

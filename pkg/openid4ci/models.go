/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"encoding/json"
	"time"

	"github.com/trustbloc/wallet-engine/pkg/credential"
)

// State is the protocol state of an interaction.
type State string

// Interaction states.
const (
	StateCreated                State = "created"
	StateAuthorized             State = "authorized"
	StateAuthorizationURLIssued State = "authorization-url-issued"
	StateCredentialIssued       State = "credential-issued"
	StateCompleted              State = "completed"
	StateFailed                 State = "failed"
)

func (s State) terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// CredentialOffer is the offer an issuer hands to the wallet, either inline or by reference.
type CredentialOffer struct {
	CredentialIssuer           string            `json:"credential_issuer"`
	CredentialConfigurationIDs []string          `json:"credential_configuration_ids,omitempty"`
	Credentials                []json.RawMessage `json:"credentials,omitempty"`
	Grants                     *Grants           `json:"grants,omitempty"`
}

// legacyOfferedCredential is the object form of an entry in the "credentials" array of older offers.
type legacyOfferedCredential struct {
	Format               string                `json:"format"`
	Types                []string              `json:"types,omitempty"`
	CredentialDefinition *CredentialDefinition `json:"credential_definition,omitempty"`
}

// Grants lists the grant types an offer can be redeemed with.
type Grants struct {
	PreAuthorizedCode *PreAuthorizedCodeGrant `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code,omitempty"`
	AuthorizationCode *AuthorizationCodeGrant `json:"authorization_code,omitempty"`
}

// PreAuthorizedCodeGrant carries the pre-authorized code and the transaction code (PIN) requirement.
type PreAuthorizedCodeGrant struct {
	PreAuthorizedCode   string  `json:"pre-authorized_code"`
	TxCode              *TxCode `json:"tx_code,omitempty"`
	UserPINRequired     bool    `json:"user_pin_required,omitempty"`
	AuthorizationServer string  `json:"authorization_server,omitempty"`
}

// PINRequired reports whether a transaction code must accompany the token request.
func (g *PreAuthorizedCodeGrant) PINRequired() bool {
	return g.TxCode != nil || g.UserPINRequired
}

// TxCode describes the transaction code the user is expected to enter.
type TxCode struct {
	InputMode   string `json:"input_mode,omitempty"`
	Length      int    `json:"length,omitempty"`
	Description string `json:"description,omitempty"`
}

// AuthorizationCodeGrant carries the optional issuer state that binds the authorization request to the offer.
type AuthorizationCodeGrant struct {
	IssuerState         string `json:"issuer_state,omitempty"`
	AuthorizationServer string `json:"authorization_server,omitempty"`
}

// AuthorizeResult is returned by IssuerInitiatedInteraction.Authorize.
type AuthorizeResult struct {
	UserPINRequired           bool
	AuthorizationCodeRequired bool
	TxCode                    *TxCode
}

// OfferedCredential is a credential the wallet is about to request, resolved against the issuer's metadata.
type OfferedCredential struct {
	ConfigurationID string
	Format          credential.Format
	Types           []string
	Context         []string
}

// OpenIDConfig is the subset of the authorization server metadata the engine relies on.
type OpenIDConfig struct {
	Issuer                             string   `json:"issuer,omitempty"`
	AuthorizationEndpoint              string   `json:"authorization_endpoint,omitempty"`
	TokenEndpoint                      string   `json:"token_endpoint,omitempty"`
	PushedAuthorizationRequestEndpoint string   `json:"pushed_authorization_request_endpoint,omitempty"`
	RequirePushedAuthorizationRequests bool     `json:"require_pushed_authorization_requests,omitempty"`
	RegistrationEndpoint               string   `json:"registration_endpoint,omitempty"`
	ResponseTypesSupported             []string `json:"response_types_supported,omitempty"`
	CodeChallengeMethodsSupported      []string `json:"code_challenge_methods_supported,omitempty"`
}

type tokenResponse struct {
	AccessToken     string `json:"access_token"`
	TokenType       string `json:"token_type,omitempty"`
	ExpiresIn       int    `json:"expires_in,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
	CNonce          string `json:"c_nonce,omitempty"`
	CNonceExpiresIn int    `json:"c_nonce_expires_in,omitempty"`
}

func (r *tokenResponse) expiry() time.Time {
	if r.ExpiresIn == 0 {
		return time.Time{}
	}

	return time.Now().Add(time.Duration(r.ExpiresIn) * time.Second)
}

type credentialRequest struct {
	Format               string                       `json:"format"`
	CredentialDefinition *credentialRequestDefinition `json:"credential_definition,omitempty"`
	Types                []string                     `json:"types,omitempty"`
	Proof                *jwtProof                    `json:"proof,omitempty"`
}

type credentialRequestDefinition struct {
	Context []string `json:"@context,omitempty"`
	Type    []string `json:"type"`
}

type batchCredentialRequest struct {
	CredentialRequests []*credentialRequest `json:"credential_requests"`
}

type jwtProof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt"`
}

type proofClaims struct {
	Issuer   string `json:"iss,omitempty"`
	Audience string `json:"aud"`
	IssuedAt int64  `json:"iat"`
	Nonce    string `json:"nonce,omitempty"`
}

// issuedCredential is one entry of a credential or batch credential response.
type issuedCredential struct {
	raw            []byte
	notificationID string
}

// AckStatus is the event reported to the issuer's notification endpoint.
type AckStatus string

// Acknowledgment events.
const (
	AckAccepted AckStatus = "credential_accepted"
	AckRejected AckStatus = "credential_deleted"
	AckFailure  AckStatus = "credential_failure"
)

type notificationRequest struct {
	NotificationID     string                 `json:"notification_id"`
	Event              AckStatus              `json:"event"`
	EventDescription   string                 `json:"event_description,omitempty"`
	IssuerIdentifier   string                 `json:"issuer_identifier,omitempty"`
	InteractionDetails map[string]interface{} `json:"interaction_details,omitempty"`
}

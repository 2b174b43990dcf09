/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
)

const (
	issuerMetadataPath      = "/.well-known/openid-credential-issuer"
	openIDConfigPath        = "/.well-known/openid-configuration"
	oauthServerMetadataPath = "/.well-known/oauth-authorization-server"
)

// IssuerMetadata is the credential issuer metadata published at /.well-known/openid-credential-issuer.
// Both the credential_configurations_supported map and the older credentials_supported list are accepted.
type IssuerMetadata struct {
	CredentialIssuer                  string                              `json:"credential_issuer"`
	AuthorizationServers              []string                            `json:"authorization_servers,omitempty"`
	AuthorizationServer               string                              `json:"authorization_server,omitempty"`
	CredentialEndpoint                string                              `json:"credential_endpoint"`
	BatchCredentialEndpoint           string                              `json:"batch_credential_endpoint,omitempty"`
	NotificationEndpoint              string                              `json:"notification_endpoint,omitempty"`
	CredentialAckEndpoint             string                              `json:"credential_ack_endpoint,omitempty"`
	CredentialConfigurationsSupported map[string]*CredentialConfiguration `json:"credential_configurations_supported,omitempty"` //nolint:lll
	CredentialsSupported              []*CredentialConfiguration          `json:"credentials_supported,omitempty"`
	Display                           []*LocalizedIssuerDisplay           `json:"display,omitempty"`
	SignedMetadata                    string                              `json:"signed_metadata,omitempty"`
}

// CredentialConfiguration describes one kind of credential the issuer can issue.
type CredentialConfiguration struct {
	ID                                   string                        `json:"id,omitempty"`
	Format                               string                        `json:"format"`
	Scope                                string                        `json:"scope,omitempty"`
	Types                                []string                      `json:"types,omitempty"`
	CredentialDefinition                 *CredentialDefinition         `json:"credential_definition,omitempty"`
	CredentialSubject                    map[string]*Claim             `json:"credentialSubject,omitempty"`
	CryptographicBindingMethodsSupported []string                      `json:"cryptographic_binding_methods_supported,omitempty"` //nolint:lll
	CredentialSigningAlgValuesSupported  []string                      `json:"credential_signing_alg_values_supported,omitempty"` //nolint:lll
	Display                              []*LocalizedCredentialDisplay `json:"display,omitempty"`
}

// CredentialDefinition carries the types, contexts and claim display of a credential configuration.
type CredentialDefinition struct {
	Context           []string          `json:"@context,omitempty"`
	Type              []string          `json:"type,omitempty"`
	CredentialSubject map[string]*Claim `json:"credentialSubject,omitempty"`
}

// Claim is the display description of a single credential subject claim.
type Claim struct {
	Display   []*LocalizedClaimDisplay `json:"display,omitempty"`
	ValueType string                   `json:"value_type,omitempty"`
	Order     *int                     `json:"order,omitempty"`
	Mask      string                   `json:"mask,omitempty"`
	Pattern   string                   `json:"pattern,omitempty"`
}

// LocalizedIssuerDisplay is the issuer display for one locale.
type LocalizedIssuerDisplay struct {
	Name            string `json:"name,omitempty"`
	Locale          string `json:"locale,omitempty"`
	URL             string `json:"url,omitempty"`
	Logo            *Logo  `json:"logo,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
}

// LocalizedCredentialDisplay is the credential display for one locale.
type LocalizedCredentialDisplay struct {
	Name            string `json:"name,omitempty"`
	Locale          string `json:"locale,omitempty"`
	Logo            *Logo  `json:"logo,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
}

// LocalizedClaimDisplay is the label of a claim for one locale.
type LocalizedClaimDisplay struct {
	Name   string `json:"name,omitempty"`
	Locale string `json:"locale,omitempty"`
}

// Logo is an image reference. Older metadata uses "url" instead of "uri".
type Logo struct {
	URI     string `json:"uri,omitempty"`
	URL     string `json:"url,omitempty"`
	AltText string `json:"alt_text,omitempty"`
}

// Location returns the logo URI regardless of which field the issuer used.
func (l *Logo) Location() string {
	if l.URI != "" {
		return l.URI
	}

	return l.URL
}

// AuthorizationServerURL returns the authorization server that handles grants for this issuer.
func (m *IssuerMetadata) AuthorizationServerURL() string {
	if len(m.AuthorizationServers) > 0 {
		return m.AuthorizationServers[0]
	}

	if m.AuthorizationServer != "" {
		return m.AuthorizationServer
	}

	return m.CredentialIssuer
}

// NotificationURL returns the endpoint that receives acknowledgments, if the issuer has one.
func (m *IssuerMetadata) NotificationURL() string {
	if m.NotificationEndpoint != "" {
		return m.NotificationEndpoint
	}

	return m.CredentialAckEndpoint
}

// Configurations returns all supported credential configurations keyed by ID. Entries of the older list form
// without an ID are keyed by their position.
func (m *IssuerMetadata) Configurations() map[string]*CredentialConfiguration {
	configs := make(map[string]*CredentialConfiguration,
		len(m.CredentialConfigurationsSupported)+len(m.CredentialsSupported))

	for id, c := range m.CredentialConfigurationsSupported {
		configs[id] = c
	}

	for i, c := range m.CredentialsSupported {
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}

		if _, exists := configs[id]; !exists {
			configs[id] = c
		}
	}

	return configs
}

// CredentialTypes returns the VC types of the configuration.
func (c *CredentialConfiguration) CredentialTypes() []string {
	if c.CredentialDefinition != nil && len(c.CredentialDefinition.Type) > 0 {
		return c.CredentialDefinition.Type
	}

	return c.Types
}

// Claims returns the claim display descriptions of the configuration.
func (c *CredentialConfiguration) Claims() map[string]*Claim {
	if c.CredentialDefinition != nil && len(c.CredentialDefinition.CredentialSubject) > 0 {
		return c.CredentialDefinition.CredentialSubject
	}

	return c.CredentialSubject
}

// SupportedCredential is a credential an issuer can issue.
type SupportedCredential struct {
	ConfigurationID string
	Format          string
	Types           []string
	Display         []*LocalizedCredentialDisplay
}

func supportedCredentials(m *IssuerMetadata) []*SupportedCredential {
	configs := m.Configurations()

	ids := lo.Keys(configs)
	sort.Strings(ids)

	supported := make([]*SupportedCredential, 0, len(ids))

	for _, id := range ids {
		c := configs[id]

		supported = append(supported, &SupportedCredential{
			ConfigurationID: id,
			Format:          c.Format,
			Types:           c.CredentialTypes(),
			Display:         c.Display,
		})
	}

	return supported
}

// findConfiguration returns the configuration matching format and types. Types match when the configuration
// lists every requested type.
func findConfiguration(m *IssuerMetadata, format string, types []string) (string, *CredentialConfiguration, bool) {
	configs := m.Configurations()

	ids := lo.Keys(configs)
	sort.Strings(ids)

	for _, id := range ids {
		c := configs[id]

		if c.Format != format && !(credential.Format(c.Format).IsJWT() && credential.Format(format).IsJWT()) {
			continue
		}

		if lo.Every(c.CredentialTypes(), types) {
			return id, c, true
		}
	}

	return "", nil, false
}

func (i *interaction) getIssuerMetadata(ctx context.Context, parentEvent string) (*IssuerMetadata, error) {
	if i.metadata != nil {
		return i.metadata, nil
	}

	endpoint := strings.TrimSuffix(i.issuerURI, "/") + issuerMetadataPath

	b, err := i.request.Get(ctx, endpoint, fmt.Sprintf(fetchMetadataEventText, endpoint), parentEvent, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch issuer metadata: %w", err)
	}

	var m IssuerMetadata

	if err = json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode issuer metadata: %w", err)
	}

	if jwtutil.IsJWS(m.SignedMetadata) {
		var signed json.RawMessage

		if _, err = jwtutil.Verify(ctx, i.didResolver, m.SignedMetadata, "", &signed); err != nil {
			return nil, fmt.Errorf("verify signed issuer metadata: %w", err)
		}

		m = IssuerMetadata{}

		if err = json.Unmarshal(signed, &m); err != nil {
			return nil, fmt.Errorf("decode signed issuer metadata: %w", err)
		}
	}

	if m.CredentialIssuer == "" {
		m.CredentialIssuer = i.issuerURI
	}

	if m.CredentialEndpoint == "" {
		return nil, errors.New("issuer metadata has no credential_endpoint")
	}

	logger.Debugc(ctx, "Issuer metadata fetched", logfields.WithIssuer(m.CredentialIssuer), log.WithURL(endpoint))

	i.metadata = &m

	return i.metadata, nil
}

func (i *interaction) getOpenIDConfig(ctx context.Context, parentEvent string) (*OpenIDConfig, error) {
	if i.openIDConfig != nil {
		return i.openIDConfig, nil
	}

	metadata, err := i.getIssuerMetadata(ctx, parentEvent)
	if err != nil {
		return nil, err
	}

	server := i.authorizationServer
	if server == "" {
		server = metadata.AuthorizationServerURL()
	}

	server = strings.TrimSuffix(server, "/")

	var b []byte

	for _, path := range []string{openIDConfigPath, oauthServerMetadataPath} {
		endpoint := server + path

		b, err = i.request.Get(ctx, endpoint, fmt.Sprintf(fetchOpenIDConfigEventText, endpoint), parentEvent, nil)
		if err == nil {
			break
		}

		var statusErr *httprequest.StatusError
		if !errors.As(err, &statusErr) {
			break
		}
	}

	if err != nil {
		return nil, fmt.Errorf("fetch openid configuration: %w", err)
	}

	var config OpenIDConfig

	if err = json.Unmarshal(b, &config); err != nil {
		return nil, fmt.Errorf("decode openid configuration: %w", err)
	}

	if config.TokenEndpoint == "" {
		return nil, errors.New("openid configuration has no token_endpoint")
	}

	i.openIDConfig = &config

	return i.openIDConfig, nil
}

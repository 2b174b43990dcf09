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
	"net/url"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
)

const credentialOfferScheme = "openid-credential-offer"

// parseCredentialOffer extracts the offer from an openid-credential-offer:// URI. The offer is either passed by
// value in credential_offer or fetched from credential_offer_uri, and in both cases may be a signed JWT.
func (i *interaction) parseCredentialOffer(ctx context.Context, offerURI, parentEvent string,
) (*CredentialOffer, error) {
	u, err := url.Parse(offerURI)
	if err != nil {
		return nil, fmt.Errorf("invalid credential offer uri: %w", err)
	}

	if u.Scheme != credentialOfferScheme && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported credential offer uri scheme %q", u.Scheme)
	}

	var payload []byte

	switch q := u.Query(); {
	case q.Get("credential_offer") != "":
		payload = []byte(q.Get("credential_offer"))
	case q.Get("credential_offer_uri") != "":
		remote := q.Get("credential_offer_uri")

		payload, err = i.request.Get(ctx, remote, fmt.Sprintf(fetchOfferEventText, remote), parentEvent, nil)
		if err != nil {
			return nil, &offerFetchError{err: err}
		}
	default:
		return nil, errors.New("both credential_offer and credential_offer_uri are empty")
	}

	payload = bytes.TrimSpace(payload)

	if jwtutil.IsJWS(string(payload)) {
		payload, err = i.signedOfferPayload(ctx, string(payload))
		if err != nil {
			return nil, err
		}
	}

	var offer CredentialOffer

	if err = json.Unmarshal(payload, &offer); err != nil {
		return nil, fmt.Errorf("decode credential offer: %w", err)
	}

	if offer.CredentialIssuer == "" {
		return nil, errors.New("credential offer has no credential_issuer")
	}

	if len(offer.CredentialConfigurationIDs) == 0 && len(offer.Credentials) == 0 {
		return nil, errors.New("credential offer has no credentials")
	}

	return &offer, nil
}

// signedOfferPayload verifies a JWT-wrapped offer and returns the embedded credential_offer object.
func (i *interaction) signedOfferPayload(ctx context.Context, jws string) ([]byte, error) {
	var claims json.RawMessage

	if _, err := jwtutil.Verify(ctx, i.didResolver, jws, "", &claims); err != nil {
		return nil, fmt.Errorf("verify signed credential offer: %w", err)
	}

	var parser fastjson.Parser

	v, err := parser.ParseBytes(claims)
	if err != nil {
		return nil, fmt.Errorf("decode signed credential offer: %w", err)
	}

	offer, err := v.Get("credential_offer").Object()
	if err != nil {
		return nil, fmt.Errorf("get credential_offer from signed offer: %w", err)
	}

	return offer.MarshalTo(nil), nil
}

type offerFetchError struct {
	err error
}

func (e *offerFetchError) Error() string {
	return fmt.Sprintf("fetch credential offer: %v", e.err)
}

func (e *offerFetchError) Unwrap() error {
	return e.err
}

// resolveOfferedCredentials maps the offer entries onto the issuer's credential configurations.
func resolveOfferedCredentials(offer *CredentialOffer, metadata *IssuerMetadata) ([]*OfferedCredential, error) {
	configs := metadata.Configurations()

	var offered []*OfferedCredential

	for _, id := range offer.CredentialConfigurationIDs {
		c, ok := configs[id]
		if !ok {
			return nil, fmt.Errorf("credential configuration %q is not supported by the issuer", id)
		}

		oc, err := offeredFromConfiguration(id, c)
		if err != nil {
			return nil, err
		}

		offered = append(offered, oc)
	}

	for idx, raw := range offer.Credentials {
		var id string

		if err := json.Unmarshal(raw, &id); err == nil {
			c, ok := configs[id]
			if !ok {
				return nil, fmt.Errorf("credential configuration %q is not supported by the issuer", id)
			}

			oc, err := offeredFromConfiguration(id, c)
			if err != nil {
				return nil, err
			}

			offered = append(offered, oc)

			continue
		}

		var legacy legacyOfferedCredential

		if err := json.Unmarshal(raw, &legacy); err != nil {
			return nil, fmt.Errorf("credentials[%d]: %w", idx, err)
		}

		c := &CredentialConfiguration{
			Format:               legacy.Format,
			Types:                legacy.Types,
			CredentialDefinition: legacy.CredentialDefinition,
		}

		if cid, known, found := findConfiguration(metadata, c.Format, c.CredentialTypes()); found {
			id, c = cid, known
		}

		oc, err := offeredFromConfiguration(id, c)
		if err != nil {
			return nil, err
		}

		offered = append(offered, oc)
	}

	return offered, nil
}

func offeredFromConfiguration(id string, c *CredentialConfiguration) (*OfferedCredential, error) {
	format := credential.Format(c.Format)

	switch format {
	case credential.JWTVCJSON, credential.JWTVCJSONLD, credential.LDPVC:
	default:
		return nil, fmt.Errorf("unsupported credential format %q", c.Format)
	}

	types := c.CredentialTypes()
	if len(types) == 0 {
		return nil, fmt.Errorf("credential configuration %q has no types", id)
	}

	oc := &OfferedCredential{
		ConfigurationID: id,
		Format:          format,
		Types:           append([]string(nil), types...),
	}

	if format != credential.JWTVCJSON && c.CredentialDefinition != nil {
		oc.Context = append([]string(nil), c.CredentialDefinition.Context...)
	}

	return oc, nil
}

func typesLabel(types []string) string {
	return strings.Join(types, ",")
}

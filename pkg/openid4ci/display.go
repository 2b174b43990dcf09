/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/trustbloc/wallet-engine/pkg/credential"
)

const maskCharacter = "•"

var maskRegex = regexp.MustCompile(`^regex\((.+)\)$`)

// DisplayData is the localized display of an issuer and its credentials.
type DisplayData struct {
	Issuer      *LocalizedIssuerDisplay `json:"issuer,omitempty"`
	Credentials []*CredentialDisplay    `json:"credentials"`
}

// CredentialDisplay is the display of one issued (or offered) credential.
type CredentialDisplay struct {
	ConfigurationID string                      `json:"configuration_id,omitempty"`
	CredentialID    string                      `json:"credential_id,omitempty"`
	Overview        *LocalizedCredentialDisplay `json:"overview,omitempty"`
	Claims          []*ClaimDisplay             `json:"claims,omitempty"`
}

// ClaimDisplay is the label and value of one credential subject claim. Value is masked when the issuer asks
// for it; RawValue never is.
type ClaimDisplay struct {
	Name      string `json:"name"`
	Label     string `json:"label,omitempty"`
	Locale    string `json:"locale,omitempty"`
	ValueType string `json:"value_type,omitempty"`
	Value     string `json:"value,omitempty"`
	RawValue  string `json:"raw_value,omitempty"`
	Order     *int   `json:"order,omitempty"`
}

// ResolveDisplay maps the issued credentials (or the offered ones before issuance) to the issuer's display
// data for locale. The first display entry is used when none matches the locale.
func (i *interaction) ResolveDisplay(ctx context.Context, locale string) (*DisplayData, error) {
	const operation = "ResolveDisplay"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.ResolveDisplay")
	defer span.End()

	if err := i.ensureIssuer(ctx, operation); err != nil {
		return nil, err
	}

	metadata, err := i.getIssuerMetadata(ctx, "")
	if err != nil {
		return nil, i.errors.metadata(operation, err)
	}

	data := &DisplayData{
		Issuer: localized(metadata.Display, locale, func(d *LocalizedIssuerDisplay) string { return d.Locale }),
	}

	if len(i.issued) > 0 {
		for _, c := range i.issued {
			data.Credentials = append(data.Credentials, resolveCredentialDisplay(metadata, c, locale))
		}

		return data, nil
	}

	configs := metadata.Configurations()

	for _, oc := range i.offered {
		d := &CredentialDisplay{ConfigurationID: oc.ConfigurationID}

		if c, ok := configs[oc.ConfigurationID]; ok {
			d.Overview = localized(c.Display, locale, func(d *LocalizedCredentialDisplay) string { return d.Locale })
			d.Claims = claimDisplays(c.Claims(), nil, locale)
		}

		data.Credentials = append(data.Credentials, d)
	}

	return data, nil
}

func resolveCredentialDisplay(m *IssuerMetadata, c *credential.Credential, locale string) *CredentialDisplay {
	d := &CredentialDisplay{CredentialID: c.ID()}

	id, config, found := configurationFor(m, c)
	if !found {
		return d
	}

	d.ConfigurationID = id
	d.Overview = localized(config.Display, locale, func(d *LocalizedCredentialDisplay) string { return d.Locale })
	d.Claims = claimDisplays(config.Claims(), c, locale)

	return d
}

// configurationFor finds the configuration whose types are all carried by the credential.
func configurationFor(m *IssuerMetadata, c *credential.Credential) (string, *CredentialConfiguration, bool) {
	configs := m.Configurations()

	ids := lo.Keys(configs)
	sort.Strings(ids)

	for _, id := range ids {
		config := configs[id]

		format := credential.Format(config.Format)
		if format != c.Format() && !(format.IsJWT() && c.Format().IsJWT()) {
			continue
		}

		types := config.CredentialTypes()
		if len(types) > 0 && lo.Every(c.Types(), types) {
			return id, config, true
		}
	}

	return "", nil, false
}

func claimDisplays(claims map[string]*Claim, c *credential.Credential, locale string) []*ClaimDisplay {
	var subject gjson.Result

	if c != nil {
		subject = c.Value("credentialSubject")
		if subject.IsArray() {
			subject = subject.Get("0")
		}
	}

	displays := make([]*ClaimDisplay, 0, len(claims))

	for name, claim := range claims {
		d := &ClaimDisplay{
			Name:      name,
			ValueType: claim.ValueType,
			Order:     claim.Order,
		}

		if label := localized(claim.Display, locale, func(d *LocalizedClaimDisplay) string {
			return d.Locale
		}); label != nil {
			d.Label = label.Name
			d.Locale = label.Locale
		}

		if c != nil {
			value := subject.Get(gjsonEscape(name))
			if !value.Exists() {
				continue
			}

			d.RawValue = value.String()
			d.Value = mask(d.RawValue, claim.Mask)
		}

		displays = append(displays, d)
	}

	sort.SliceStable(displays, func(a, b int) bool {
		oa, ob := displays[a].Order, displays[b].Order

		switch {
		case oa != nil && ob != nil && *oa != *ob:
			return *oa < *ob
		case oa != nil && ob == nil:
			return true
		case oa == nil && ob != nil:
			return false
		default:
			return displays[a].Name < displays[b].Name
		}
	})

	return displays
}

// mask hides the part of value captured by the first group of a "regex(...)" mask.
func mask(value, m string) string {
	matches := maskRegex.FindStringSubmatch(m)
	if len(matches) != 2 {
		return value
	}

	re, err := regexp.Compile(matches[1])
	if err != nil {
		return value
	}

	loc := re.FindStringSubmatchIndex(value)
	if len(loc) < 4 || loc[2] < 0 {
		return value
	}

	hidden := strings.Repeat(maskCharacter, len([]rune(value[loc[2]:loc[3]])))

	return value[:loc[2]] + hidden + value[loc[3]:]
}

func gjsonEscape(path string) string {
	r := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)

	return r.Replace(path)
}

// localized returns the entry for locale, falling back to the first entry.
func localized[T any](entries []*T, locale string, localeOf func(*T) string) *T {
	if len(entries) == 0 {
		return nil
	}

	if locale != "" {
		if e, ok := lo.Find(entries, func(e *T) bool {
			return strings.EqualFold(localeOf(e), locale)
		}); ok {
			return e
		}
	}

	return entries[0]
}

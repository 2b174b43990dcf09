/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	"github.com/trustbloc/logutil-go/pkg/log"
	"golang.org/x/oauth2"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
	"github.com/trustbloc/wallet-engine/pkg/oauth2client"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// interaction holds what issuer-initiated and wallet-initiated flows have in common once the credential issuer
// is known.
type interaction struct {
	errors      errorFactory
	cfg         *ClientConfig
	state       State
	request     *httprequest.Request
	oauth       *oauth2client.Client
	didResolver api.DIDResolver

	// loadIssuer makes issuerURI known. Issuer-initiated interactions read it from the offer.
	loadIssuer func(ctx context.Context, operation string) error

	issuerURI           string
	authorizationServer string
	metadata            *IssuerMetadata
	openIDConfig        *OpenIDConfig
	offered             []*OfferedCredential

	preAuthorizedCode string
	preAuthGrant      *PreAuthorizedCodeGrant

	clientID     string
	redirectURI  string
	oauthState   string
	codeVerifier string

	token           *oauth2.Token
	cNonce          string
	issued          []*credential.Credential
	notificationIDs []string
}

func newInteraction(component walleterror.Component, config *ClientConfig) (*interaction, error) {
	factory := errorFactory{component: component}

	cfg, err := copyConfig(config)
	if err != nil {
		return nil, factory.new(InvalidConfigCode, walleterror.MalformedInput, "New", err)
	}

	return &interaction{
		errors:      factory,
		cfg:         cfg,
		state:       StateCreated,
		request:     httprequest.New(httprequest.NewClient(cfg.HTTPClient, cfg.Headers), cfg.MetricsLogger),
		oauth:       oauth2client.NewOAuth2Client(),
		didResolver: cfg.DIDResolver,
	}, nil
}

// State returns the current protocol state.
func (i *interaction) State() State {
	return i.state
}

func (i *interaction) setState(ctx context.Context, s State) {
	logger.Debugc(ctx, "Interaction state changed", logfields.WithInteractionState(string(s)),
		log.WithState(string(i.state)))

	i.state = s
}

// fail moves the interaction to Failed for errors that end the protocol run and returns e.
func (i *interaction) fail(ctx context.Context, e *Error) *Error {
	switch e.Category() {
	case walleterror.RemoteRejection, walleterror.MalformedInput:
		i.setState(ctx, StateFailed)
	}

	return e
}

func (i *interaction) ensureIssuer(ctx context.Context, operation string) error {
	if i.issuerURI != "" || i.loadIssuer == nil {
		return nil
	}

	return i.loadIssuer(ctx, operation)
}

// IssuerMetadata returns a copy of the credential issuer metadata. It does not change the interaction state.
func (i *interaction) IssuerMetadata(ctx context.Context) (*IssuerMetadata, error) {
	const operation = "IssuerMetadata"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.IssuerMetadata")
	defer span.End()

	if i.state.terminal() {
		return nil, i.errors.invalidState(operation, i.state)
	}

	if err := i.ensureIssuer(ctx, operation); err != nil {
		return nil, err
	}

	m, err := i.getIssuerMetadata(ctx, "")
	if err != nil {
		return nil, i.errors.metadata(operation, err)
	}

	metadata := &IssuerMetadata{}

	if err = copier.CopyWithOption(metadata, m, copier.Option{DeepCopy: true}); err != nil {
		return nil, i.errors.metadata(operation, fmt.Errorf("copy issuer metadata: %w", err))
	}

	return metadata, nil
}

// SupportedCredentials lists the credentials the issuer can issue. It does not change the interaction state.
func (i *interaction) SupportedCredentials(ctx context.Context) ([]*SupportedCredential, error) {
	m, err := i.IssuerMetadata(ctx)
	if err != nil {
		return nil, err
	}

	return supportedCredentials(m), nil
}

// OfferedCredentials returns the credentials the interaction is about to request.
func (i *interaction) OfferedCredentials() []*OfferedCredential {
	return append([]*OfferedCredential(nil), i.offered...)
}

// RequestCredential obtains an access token (once) and requests every offered credential with a key proof
// signed by vm.
func (i *interaction) RequestCredential(ctx context.Context, vm *did.VerificationMethod,
	opts ...RequestCredentialOpt,
) ([]*credential.Credential, error) {
	const operation = "RequestCredential"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.RequestCredential")
	defer span.End()

	start := time.Now()

	o := &requestCredentialOpts{}
	for _, opt := range opts {
		opt(o)
	}

	if i.state != StateAuthorized && i.state != StateAuthorizationURLIssued {
		return nil, i.errors.invalidState(operation, i.state)
	}

	if vm == nil {
		return nil, i.errors.new(SigningFailedCode, walleterror.Signing, operation,
			errors.New("verification method is required"))
	}

	if i.token == nil {
		if err := i.obtainToken(ctx, operation, o); err != nil {
			i.logActivity(ctx, operation, api.ActivityStatusFailure, nil)

			return nil, err
		}
	}

	creds, err := i.requestCredentials(ctx, operation, vm)
	if err != nil {
		i.logActivity(ctx, operation, api.ActivityStatusFailure, nil)

		return nil, err
	}

	i.issued = creds
	i.setState(ctx, StateCredentialIssued)

	var subjectIDs []string
	for _, c := range creds {
		subjectIDs = append(subjectIDs, c.SubjectIDs()...)
	}

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, map[string]interface{}{
		"subjectIDs": subjectIDs,
		"count":      len(creds),
	})
	i.logMetrics(ctx, requestCredentialEventText, "", time.Since(start))

	return creds, nil
}

func (i *interaction) obtainToken(ctx context.Context, operation string, o *requestCredentialOpts) error {
	if i.state == StateAuthorizationURLIssued {
		return i.exchangeAuthorizationCode(ctx, operation, o.redirectURI)
	}

	if i.preAuthGrant == nil {
		return i.errors.invalidState(operation, i.state).
			WithErrorPrefix("an authorization URL must be created first")
	}

	return i.requestPreAuthorizedToken(ctx, operation, o.pin)
}

func (i *interaction) credentialClient(ctx context.Context) *httprequest.Request {
	return httprequest.New(i.oauth.HTTPClient(ctx, i.token, i.request.Client()), i.cfg.MetricsLogger)
}

func (i *interaction) issuerName(locale string) string {
	if i.metadata != nil {
		if d := localized(i.metadata.Display, locale, func(d *LocalizedIssuerDisplay) string {
			return d.Locale
		}); d != nil && d.Name != "" {
			return d.Name
		}
	}

	return i.issuerURI
}

func (i *interaction) logActivity(ctx context.Context, action, status string, params map[string]interface{}) {
	err := i.cfg.ActivityLogger.Log(api.NewActivity(i.issuerName(""), activityOperation, action, status, params))
	if err != nil {
		logger.Warnc(ctx, "Failed to log activity", log.WithError(err))
	}
}

func (i *interaction) logMetrics(ctx context.Context, event, parentEvent string, d time.Duration) {
	if err := i.cfg.MetricsLogger.Log(&api.MetricsEvent{
		Event:       event,
		ParentEvent: parentEvent,
		Duration:    d,
	}); err != nil {
		logger.Warnc(ctx, "Failed to log metrics event", log.WithError(err), logfields.WithEvent(event))
	}
}

func typesError(format string, types []string) error {
	return fmt.Errorf("no credential configuration for format %s and types %s", format, typesLabel(types))
}

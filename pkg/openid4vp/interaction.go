/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4vp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tidwall/gjson"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing/attributeutil"
	"github.com/trustbloc/wallet-engine/pkg/presexch"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

const formContentType = "application/x-www-form-urlencoded"

var successStatuses = []int{http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent}

// Interaction answers one OpenID4VP authorization request.
//
//	Created -> QueryIssued -> Presented | Rejected | Failed
type Interaction struct {
	cfg     *ClientConfig
	state   State
	request *httprequest.Request

	requestObjectValue string
	requestURI         string

	requestObject *requestObject
	query         *presexch.PresentationDefinition
	redirectURI   string
}

// NewInteraction creates an interaction for authorizationRequest, which is an openid-vc:// or openid4vp://
// URI carrying request or request_uri, a request URI, or the request object JWT itself.
func NewInteraction(authorizationRequest string, config *ClientConfig) (*Interaction, error) {
	cfg, err := copyConfig(config)
	if err != nil {
		return nil, newError(InvalidConfigCode, walleterror.MalformedInput, "New", err)
	}

	value, uri, err := splitAuthorizationRequest(authorizationRequest)
	if err != nil {
		return nil, malformedRequest("New", err)
	}

	return &Interaction{
		cfg:                cfg,
		state:              StateCreated,
		request:            httprequest.New(httprequest.NewClient(cfg.HTTPClient, cfg.Headers), cfg.MetricsLogger),
		requestObjectValue: value,
		requestURI:         uri,
	}, nil
}

// State returns the current protocol state.
func (i *Interaction) State() State {
	return i.state
}

func (i *Interaction) setState(ctx context.Context, s State) {
	logger.Debugc(ctx, "Interaction state changed", logfields.WithInteractionState(string(s)),
		log.WithState(string(i.state)))

	i.state = s
}

func (i *Interaction) fail(ctx context.Context, e *Error) *Error {
	i.setState(ctx, StateFailed)

	return e
}

// GetQuery fetches and checks the verifier's request object and returns its presentation definition.
func (i *Interaction) GetQuery(ctx context.Context) (*presexch.PresentationDefinition, error) {
	const operation = "GetQuery"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4vp.GetQuery")
	defer span.End()

	if i.state != StateCreated {
		return nil, invalidState(operation, i.state)
	}

	start := time.Now()

	raw := i.requestObjectValue

	if i.requestURI != "" {
		b, err := i.request.Get(ctx, i.requestURI, fmt.Sprintf(fetchRequestObjectEventText, i.requestURI),
			getQueryEventText, verifierErrorHandler(i.requestURI))
		if err != nil {
			e := remote(operation, err)
			if e.Category() == walleterror.Transport {
				return nil, e
			}

			return nil, i.fail(ctx, e)
		}

		raw = string(b)
	}

	ro, e := i.decodeRequestObject(ctx, operation, raw)
	if e != nil {
		if e.Category() == walleterror.Resolution {
			return nil, e
		}

		return nil, i.fail(ctx, e)
	}

	if code, err := validate(ro, time.Now()); err != nil {
		return nil, i.fail(ctx, newError(code, walleterror.MalformedInput, operation, err))
	}

	pd, err := presexch.ParseDefinition(ro.presentationDefinition())
	if err != nil {
		return nil, i.fail(ctx, malformedRequest(operation, err))
	}

	i.requestObject = ro
	i.query = pd

	logger.Debugc(ctx, "Presentation query received", logfields.WithVerifier(ro.ClientID),
		logfields.WithPresDefID(pd.ID))

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, map[string]interface{}{
		"definitionID": pd.ID,
	})

	i.setState(ctx, StateQueryIssued)
	i.logMetrics(ctx, getQueryEventText, "", time.Since(start))

	return i.Query()
}

// Query returns a copy of the presentation definition received by GetQuery.
func (i *Interaction) Query() (*presexch.PresentationDefinition, error) {
	if i.query == nil {
		return nil, invalidState("Query", i.state)
	}

	pd := &presexch.PresentationDefinition{}

	if err := copier.CopyWithOption(pd, i.query, copier.Option{DeepCopy: true}); err != nil {
		return nil, malformedRequest("Query", err)
	}

	return pd, nil
}

// VerifierDisplayData describes the verifier as it presents itself in the request object.
func (i *Interaction) VerifierDisplayData() (*VerifierDisplayData, error) {
	if i.requestObject == nil {
		return nil, invalidState("VerifierDisplayData", i.state)
	}

	md := i.requestObject.metadata()

	d := &VerifierDisplayData{
		Name:    md.ClientName,
		Purpose: md.ClientPurpose,
		LogoURI: md.LogoURI,
	}

	if strings.HasPrefix(i.requestObject.ClientID, "did:") {
		d.DID = i.requestObject.ClientID
	}

	if d.Purpose == "" {
		d.Purpose = i.query.Purpose
	}

	return d, nil
}

// RedirectURI returns the URI the verifier asked the user to be sent to after a presentation, if any.
func (i *Interaction) RedirectURI() string {
	return i.redirectURI
}

// PresentCredential sends content to the verifier, signed with vm. It may be called once.
func (i *Interaction) PresentCredential(ctx context.Context, content *presexch.PresentationContent,
	vm *did.VerificationMethod,
) error {
	const operation = "PresentCredential"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4vp.PresentCredential")
	defer span.End()

	if i.state != StateQueryIssued {
		return invalidState(operation, i.state)
	}

	if err := i.checkContent(content); err != nil {
		return newError(InvalidPresentationCode, walleterror.Selection, operation, err)
	}

	if vm == nil {
		return newError(SigningFailedCode, walleterror.Signing, operation,
			errors.New("verification method is required"))
	}

	start := time.Now()

	form, err := i.authorizedResponse(ctx, content, vm)
	if err != nil {
		i.logActivity(ctx, operation, api.ActivityStatusFailure, nil)

		return i.fail(ctx, newError(SigningFailedCode, walleterror.Signing, operation, err))
	}

	endpoint := i.requestObject.responseEndpoint()

	span.SetAttributes(attributeutil.FormParams("authorization_response", form,
		attributeutil.WithRedacted("vp_token"), attributeutil.WithRedacted("id_token")))

	resp, err := i.request.Do(ctx, http.MethodPost, endpoint, formContentType, strings.NewReader(form.Encode()),
		nil, fmt.Sprintf(sendAuthorizedResponseEventText, endpoint), presentCredentialEventText,
		successStatuses, verifierErrorHandler(endpoint))
	if err != nil {
		i.logActivity(ctx, operation, api.ActivityStatusFailure, nil)

		return i.fail(ctx, remote(operation, err))
	}

	i.redirectURI = gjson.GetBytes(resp, "redirect_uri").String()

	i.setState(ctx, StatePresented)

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, map[string]interface{}{
		"definitionID": i.query.ID,
		"count":        len(content.Credentials),
	})
	i.logMetrics(ctx, presentCredentialEventText, "", time.Since(start))

	return nil
}

// Reject tells the verifier that no credentials will be presented.
func (i *Interaction) Reject(ctx context.Context, reason RejectReason) error {
	const operation = "Reject"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4vp.Reject")
	defer span.End()

	if i.state != StateQueryIssued {
		return invalidState(operation, i.state)
	}

	if reason != NoConsent && reason != NoMatchFound {
		return newError(InvalidConfigCode, walleterror.MalformedInput, operation,
			fmt.Errorf("unsupported reject reason %q", reason)).
			WithIncorrectValue(string(reason))
	}

	start := time.Now()

	form := url.Values{}
	form.Set("error", accessDeniedError)
	form.Set("error_description", string(reason))

	if i.requestObject.State != "" {
		form.Set("state", i.requestObject.State)
	}

	endpoint := i.requestObject.responseEndpoint()

	_, err := i.request.Do(ctx, http.MethodPost, endpoint, formContentType, strings.NewReader(form.Encode()),
		nil, fmt.Sprintf(sendErrorResponseEventText, endpoint), rejectEventText,
		successStatuses, verifierErrorHandler(endpoint))
	if err != nil {
		e := remote(operation, err)
		if e.Category() == walleterror.Transport {
			return e
		}

		return i.fail(ctx, e)
	}

	i.setState(ctx, StateRejected)

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, map[string]interface{}{
		"reason": string(reason),
	})
	i.logMetrics(ctx, rejectEventText, "", time.Since(start))

	return nil
}

func (i *Interaction) checkContent(content *presexch.PresentationContent) error {
	if content == nil || len(content.Credentials) == 0 {
		return errors.New("no credentials to present")
	}

	if content.Submission == nil {
		return errors.New("presentation has no submission")
	}

	if content.Submission.DefinitionID != i.query.ID {
		return fmt.Errorf("submission is for definition %s, not %s", content.Submission.DefinitionID, i.query.ID)
	}

	return nil
}

// authorizedResponse signs the vp_token and id_token and returns the form of the authorization response.
func (i *Interaction) authorizedResponse(ctx context.Context, content *presexch.PresentationContent,
	vm *did.VerificationMethod,
) (url.Values, error) {
	ro := i.requestObject
	holder := vm.DID()
	now := time.Now()
	exp := now.Add(tokenLifetime)

	vp := content.Presentation(holder)
	delete(vp, "presentation_submission")

	vpToken, err := jwtutil.Sign(ctx, i.cfg.Signer, vm, &vpTokenClaims{
		VP:    vp,
		Nonce: ro.Nonce,
		Iss:   holder,
		Aud:   ro.ClientID,
		IAT:   now.Unix(),
		NBF:   now.Unix(),
		Exp:   exp.Unix(),
		JTI:   uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("sign vp_token: %w", err)
	}

	idClaims := &idTokenClaims{
		Nonce: ro.Nonce,
		Iss:   selfIssuedIssuer,
		Sub:   holder,
		Aud:   ro.ClientID,
		IAT:   now.Unix(),
		NBF:   now.Unix(),
		Exp:   exp.Unix(),
		JTI:   uuid.NewString(),
	}
	idClaims.VPToken.PresentationSubmission = content.Submission

	idToken, err := jwtutil.Sign(ctx, i.cfg.Signer, vm, idClaims)
	if err != nil {
		return nil, fmt.Errorf("sign id_token: %w", err)
	}

	submission, err := json.Marshal(content.Submission)
	if err != nil {
		return nil, fmt.Errorf("encode presentation submission: %w", err)
	}

	form := url.Values{}
	form.Set("id_token", idToken)
	form.Set("vp_token", vpToken)
	form.Set("presentation_submission", string(submission))

	if ro.State != "" {
		form.Set("state", ro.State)
	}

	return form, nil
}

func (i *Interaction) verifierName() string {
	if i.requestObject == nil {
		return ""
	}

	if name := i.requestObject.metadata().ClientName; name != "" {
		return name
	}

	return i.requestObject.ClientID
}

func (i *Interaction) logActivity(ctx context.Context, action, status string, params map[string]interface{}) {
	err := i.cfg.ActivityLogger.Log(api.NewActivity(i.verifierName(), activityOperation, action, status, params))
	if err != nil {
		logger.Warnc(ctx, "Failed to log activity", log.WithError(err))
	}
}

func (i *Interaction) logMetrics(ctx context.Context, event, parentEvent string, d time.Duration) {
	if err := i.cfg.MetricsLogger.Log(&api.MetricsEvent{
		Event:       event,
		ParentEvent: parentEvent,
		Duration:    d,
	}); err != nil {
		logger.Warnc(ctx, "Failed to log metrics event", log.WithError(err), logfields.WithEvent(event))
	}
}

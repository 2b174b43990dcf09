/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4vp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/creator"
	"github.com/trustbloc/wallet-engine/pkg/did/resolver"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/kms"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
	"github.com/trustbloc/wallet-engine/pkg/openid4vp"
	"github.com/trustbloc/wallet-engine/pkg/storage/mem"
)

const (
	definitionID  = "degree-check"
	requestNonce  = "nonce-1"
	requestState  = "state-1"
	verifierName  = "Example Verifier"
	doneRedirect  = "https://verifier.example/done"
	degreeType    = "UniversityDegreeCredential"
	licenseType   = "DriversLicenseCredential"
	verifierLogo  = "https://verifier.example/logo.png"
	verifierGoal  = "Degree check"
	formMediaType = "application/x-www-form-urlencoded"
)

type wallet struct {
	resolver api.DIDResolver
	signer   api.Signer
	holder   *did.SigningDID
	issuer   *did.SigningDID
}

func newWallet(t *testing.T) *wallet {
	t.Helper()

	km, err := kms.NewLocalKMS(mem.NewStore(), nil)
	require.NoError(t, err)

	holder, err := creator.PublicDID(context.Background(), km, creator.KeyMethod, key.ED25519)
	require.NoError(t, err)

	issuer, err := creator.PublicDID(context.Background(), km, creator.KeyMethod, key.ECDSAP256)
	require.NoError(t, err)

	r, err := resolver.New()
	require.NoError(t, err)

	return &wallet{resolver: r, signer: km.Signer(), holder: holder, issuer: issuer}
}

func (w *wallet) config() *openid4vp.ClientConfig {
	return &openid4vp.ClientConfig{
		DIDResolver: w.resolver,
		Signer:      w.signer,
	}
}

// credential returns a JWT credential of type typ issued to the wallet holder.
func (w *wallet) credential(t *testing.T, typ string) *credential.Credential {
	t.Helper()

	now := time.Now()

	jws, err := jwtutil.Sign(context.Background(), w.signer, w.issuer.VerificationMethod, map[string]interface{}{
		"iss": w.issuer.DID,
		"sub": w.holder.DID,
		"jti": "urn:uuid:" + uuid.NewString(),
		"nbf": now.Unix(),
		"iat": now.Unix(),
		"vc": map[string]interface{}{
			"@context": []string{"https://www.w3.org/2018/credentials/v1"},
			"type":     []string{"VerifiableCredential", typ},
			"credentialSubject": map[string]interface{}{
				"id":     w.holder.DID,
				"degree": map[string]interface{}{"type": "BachelorDegree"},
			},
		},
	})
	require.NoError(t, err)

	c, err := credential.Parse(context.Background(), []byte(jws))
	require.NoError(t, err)

	return c
}

// mockVerifier is an OpenID4VP verifier backed by httptest. It serves the request object at /request and
// records authorization responses posted to /response.
type mockVerifier struct {
	t        *testing.T
	srv      *httptest.Server
	signer   api.Signer
	verifier *did.SigningDID

	mu             sync.Mutex
	requestObject  string
	requestStatus  int
	responseStatus int
	responseBody   string
	requestCalls   int
	responses      []url.Values
	headers        http.Header
}

func newMockVerifier(t *testing.T) *mockVerifier {
	t.Helper()

	km, err := kms.NewLocalKMS(mem.NewStore(), nil)
	require.NoError(t, err)

	verifier, err := creator.PublicDID(context.Background(), km, creator.KeyMethod, key.ECDSAP256)
	require.NoError(t, err)

	m := &mockVerifier{
		t:            t,
		signer:       km.Signer(),
		verifier:     verifier,
		responseBody: `{"redirect_uri":"` + doneRedirect + `"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/request", m.request)
	mux.HandleFunc("/response", m.response)

	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)

	return m
}

func (m *mockVerifier) URL() string {
	return m.srv.URL
}

func (m *mockVerifier) requestURI() string {
	return "openid-vc://?request_uri=" + url.QueryEscape(m.URL()+"/request")
}

func (m *mockVerifier) serve(requestObject string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestObject = requestObject
}

func (m *mockVerifier) request(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requestCalls++
	m.headers = r.Header.Clone()

	if m.requestStatus != 0 {
		w.WriteHeader(m.requestStatus)

		return
	}

	w.Header().Set("Content-Type", "application/oauth-authz-req+jwt")
	_, _ = w.Write([]byte(m.requestObject))
}

func (m *mockVerifier) response(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.Header.Get("Content-Type") != formMediaType {
		w.WriteHeader(http.StatusMethodNotAllowed)

		return
	}

	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = append(m.responses, r.PostForm)

	if m.responseStatus != 0 {
		w.WriteHeader(m.responseStatus)
	}

	_, _ = w.Write([]byte(m.responseBody))
}

func (m *mockVerifier) recordedResponses() []url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]url.Values(nil), m.responses...)
}

func (m *mockVerifier) requestHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.headers.Clone()
}

func (m *mockVerifier) setResponse(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responseStatus = status
	m.responseBody = body
}

func degreeDefinition() map[string]interface{} {
	return map[string]interface{}{
		"id":      definitionID,
		"purpose": "Proof of a university degree",
		"input_descriptors": []interface{}{
			map[string]interface{}{
				"id":   "degree",
				"name": "University degree",
				"constraints": map[string]interface{}{
					"fields": []interface{}{
						map[string]interface{}{
							"path":   []string{"$.type"},
							"filter": map[string]interface{}{"type": "string", "const": degreeType},
						},
					},
				},
			},
		},
	}
}

// claims returns the claims of a valid request object of the DID client.
func (m *mockVerifier) claims() map[string]interface{} {
	now := time.Now()

	return map[string]interface{}{
		"jti":              uuid.NewString(),
		"iat":              now.Unix(),
		"exp":              now.Add(time.Hour).Unix(),
		"iss":              m.verifier.DID,
		"client_id":        m.verifier.DID,
		"client_id_scheme": "did",
		"response_type":    "id_token vp_token",
		"response_mode":    "direct_post",
		"response_uri":     m.URL() + "/response",
		"nonce":            requestNonce,
		"state":            requestState,
		"client_metadata": map[string]interface{}{
			"client_name":    verifierName,
			"client_purpose": verifierGoal,
			"logo_uri":       verifierLogo,
		},
		"presentation_definition": degreeDefinition(),
	}
}

func (m *mockVerifier) sign(claims map[string]interface{}) string {
	jws, err := jwtutil.Sign(context.Background(), m.signer, m.verifier.VerificationMethod, claims,
		jwtutil.WithType("oauth-authz-req+jwt"))
	require.NoError(m.t, err)

	return jws
}

func (m *mockVerifier) signedRequest() string {
	return m.sign(m.claims())
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/creator"
	"github.com/trustbloc/wallet-engine/pkg/did/resolver"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/kms"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
	"github.com/trustbloc/wallet-engine/pkg/storage/mem"
)

const (
	universityDegreeID = "UniversityDegreeCredential_jwt_vc_json"
	driversLicenseID   = "DriversLicense_jwt_vc_json"

	preAuthCode  = "pre-auth-code-1"
	authCode     = "auth-code-1"
	accessToken  = "access-token-1"
	initialNonce = "nonce-1"
)

// mockIssuer is an OpenID4VCI issuer and authorization server backed by httptest.
type mockIssuer struct {
	t        *testing.T
	srv      *httptest.Server
	resolver api.DIDResolver
	signer   api.Signer
	issuer   *did.SigningDID
	holder   *did.SigningDID

	pin              string
	batch            bool
	requirePAR       bool
	rejectFirstProof bool
	failCredential   bool
	metadataStatus   int

	mu              sync.Mutex
	nonce           string
	challenge       string
	tokenCalls      int
	credentialCalls int
	batchCalls      int
	parCalls        int
	parState        string
	notifications   []map[string]interface{}
	headers         http.Header
}

type wallet struct {
	resolver api.DIDResolver
	signer   api.Signer
	holder   *did.SigningDID
}

func newWallet(t *testing.T) *wallet {
	t.Helper()

	km, err := kms.NewLocalKMS(mem.NewStore(), nil)
	require.NoError(t, err)

	holder, err := creator.PublicDID(context.Background(), km, creator.KeyMethod, key.ED25519)
	require.NoError(t, err)

	r, err := resolver.New()
	require.NoError(t, err)

	return &wallet{resolver: r, signer: km.Signer(), holder: holder}
}

func newMockIssuer(t *testing.T, w *wallet) *mockIssuer {
	t.Helper()

	km, err := kms.NewLocalKMS(mem.NewStore(), nil)
	require.NoError(t, err)

	issuer, err := creator.PublicDID(context.Background(), km, creator.KeyMethod, key.ECDSAP256)
	require.NoError(t, err)

	m := &mockIssuer{
		t:        t,
		resolver: w.resolver,
		signer:   km.Signer(),
		issuer:   issuer,
		holder:   w.holder,
		nonce:    initialNonce,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-credential-issuer", m.metadata)
	mux.HandleFunc("/.well-known/openid-configuration", m.openIDConfig)
	mux.HandleFunc("/token", m.token)
	mux.HandleFunc("/par", m.par)
	mux.HandleFunc("/credential", m.credential)
	mux.HandleFunc("/batch_credential", m.batchCredential)
	mux.HandleFunc("/notification", m.notification)
	mux.HandleFunc("/offer", m.offer)

	m.srv = httptest.NewServer(mux)
	t.Cleanup(m.srv.Close)

	return m
}

func (m *mockIssuer) URL() string {
	return m.srv.URL
}

func (m *mockIssuer) offerJSON(grants map[string]interface{}, configurationIDs ...string) string {
	b, err := json.Marshal(map[string]interface{}{
		"credential_issuer":            m.URL(),
		"credential_configuration_ids": configurationIDs,
		"grants":                       grants,
	})
	require.NoError(m.t, err)

	return string(b)
}

func (m *mockIssuer) preAuthOfferURI(withPIN bool, configurationIDs ...string) string {
	grant := map[string]interface{}{"pre-authorized_code": preAuthCode}
	if withPIN {
		grant["tx_code"] = map[string]interface{}{"input_mode": "numeric", "length": 4}
	}

	if len(configurationIDs) == 0 {
		configurationIDs = []string{universityDegreeID}
	}

	return "openid-credential-offer://?credential_offer=" + url.QueryEscape(m.offerJSON(map[string]interface{}{
		"urn:ietf:params:oauth:grant-type:pre-authorized_code": grant,
	}, configurationIDs...))
}

func (m *mockIssuer) authCodeOfferURI(issuerState string) string {
	return "openid-credential-offer://?credential_offer=" + url.QueryEscape(m.offerJSON(map[string]interface{}{
		"authorization_code": map[string]interface{}{"issuer_state": issuerState},
	}, universityDegreeID))
}

func (m *mockIssuer) metadata(w http.ResponseWriter, _ *http.Request) {
	if m.metadataStatus != 0 {
		w.WriteHeader(m.metadataStatus)

		return
	}

	order0, order1 := 0, 1

	md := map[string]interface{}{
		"credential_issuer":     m.URL(),
		"credential_endpoint":   m.URL() + "/credential",
		"notification_endpoint": m.URL() + "/notification",
		"display":               []map[string]interface{}{{"name": "Example University", "locale": "en-US"}},
		"credential_configurations_supported": map[string]interface{}{
			universityDegreeID: map[string]interface{}{
				"format": "jwt_vc_json",
				"credential_definition": map[string]interface{}{
					"type": []string{"VerifiableCredential", "UniversityDegreeCredential"},
					"credentialSubject": map[string]interface{}{
						"name": map[string]interface{}{
							"display": []map[string]interface{}{
								{"name": "Name", "locale": "en-US"},
								{"name": "Nom", "locale": "fr-FR"},
							},
							"order": order0,
						},
						"studentID": map[string]interface{}{
							"display": []map[string]interface{}{{"name": "Student ID", "locale": "en-US"}},
							"order":   order1,
							"mask":    "regex(^(.*).{2}$)",
						},
					},
				},
				"display": []map[string]interface{}{{"name": "University Degree", "locale": "en-US"}},
			},
			driversLicenseID: map[string]interface{}{
				"format": "jwt_vc_json",
				"scope":  "DriversLicense",
				"credential_definition": map[string]interface{}{
					"type": []string{"VerifiableCredential", "DriversLicense"},
				},
				"display": []map[string]interface{}{{"name": "Driver's License", "locale": "en-US"}},
			},
		},
	}

	if m.batch {
		md["batch_credential_endpoint"] = m.URL() + "/batch_credential"
	}

	m.writeJSON(w, http.StatusOK, md)
}

func (m *mockIssuer) openIDConfig(w http.ResponseWriter, _ *http.Request) {
	config := map[string]interface{}{
		"issuer":                           m.URL(),
		"authorization_endpoint":           m.URL() + "/authorize",
		"token_endpoint":                   m.URL() + "/token",
		"code_challenge_methods_supported": []string{"S256"},
	}

	if m.requirePAR {
		config["pushed_authorization_request_endpoint"] = m.URL() + "/par"
		config["require_pushed_authorization_requests"] = true
	}

	m.writeJSON(w, http.StatusOK, config)
}

func (m *mockIssuer) offer(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(m.offerJSON(map[string]interface{}{ //nolint:errcheck
		"urn:ietf:params:oauth:grant-type:pre-authorized_code": map[string]interface{}{
			"pre-authorized_code": preAuthCode,
		},
	}, universityDegreeID)))
}

func (m *mockIssuer) token(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokenCalls++
	m.headers = r.Header.Clone()

	require.NoError(m.t, r.ParseForm())

	switch r.Form.Get("grant_type") {
	case "urn:ietf:params:oauth:grant-type:pre-authorized_code":
		if r.Form.Get("pre-authorized_code") != preAuthCode || r.Form.Get("tx_code") != m.pin {
			m.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})

			return
		}
	case "authorization_code":
		if r.Form.Get("code") != authCode ||
			oauth2.S256ChallengeFromVerifier(r.Form.Get("code_verifier")) != m.challenge {
			m.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})

			return
		}
	default:
		m.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})

		return
	}

	m.writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   3600,
		"c_nonce":      m.nonce,
	})
}

func (m *mockIssuer) par(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parCalls++

	require.NoError(m.t, r.ParseForm())
	m.challenge = r.Form.Get("code_challenge")
	m.parState = r.Form.Get("state")

	m.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"request_uri": "urn:ietf:params:oauth:request_uri:1",
		"expires_in":  60,
	})
}

type credentialRequest struct {
	Format               string `json:"format"`
	CredentialDefinition struct {
		Type []string `json:"type"`
	} `json:"credential_definition"`
	Proof struct {
		ProofType string `json:"proof_type"`
		JWT       string `json:"jwt"`
	} `json:"proof"`
}

// checkRequest validates the bearer token and the key proof. It returns false after writing an error response.
func (m *mockIssuer) checkRequest(w http.ResponseWriter, r *http.Request, req *credentialRequest) bool {
	if r.Header.Get("Authorization") != "Bearer "+accessToken {
		m.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})

		return false
	}

	header, err := jwtutil.Parse(req.Proof.JWT)
	require.NoError(m.t, err)
	require.Equal(m.t, "openid4vci-proof+jwt", header.ExtraHeaders[jose.HeaderType])
	require.Equal(m.t, m.holder.VerificationMethod.ID, header.KeyID)

	var claims struct {
		Audience string `json:"aud"`
		Nonce    string `json:"nonce"`
		IssuedAt int64  `json:"iat"`
	}

	_, err = jwtutil.Verify(r.Context(), m.resolver, req.Proof.JWT, "", &claims)
	require.NoError(m.t, err)
	require.Equal(m.t, m.URL(), claims.Audience)
	require.NotZero(m.t, claims.IssuedAt)

	if m.rejectFirstProof && m.credentialCalls == 1 {
		m.nonce = "nonce-2"

		m.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_or_missing_proof",
			"c_nonce": m.nonce,
		})

		return false
	}

	if claims.Nonce != m.nonce {
		m.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_or_missing_proof"})

		return false
	}

	if m.failCredential {
		m.writeJSON(w, http.StatusForbidden, map[string]string{
			"error":             "access_denied",
			"error_description": "credential revoked",
		})

		return false
	}

	return true
}

func (m *mockIssuer) credential(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.credentialCalls++

	var req credentialRequest

	require.NoError(m.t, json.NewDecoder(r.Body).Decode(&req))
	require.Equal(m.t, "jwt", req.Proof.ProofType)

	if !m.checkRequest(w, r, &req) {
		return
	}

	m.writeJSON(w, http.StatusOK, map[string]interface{}{
		"format":          req.Format,
		"credential":      m.issueCredential(r.Context(), req.CredentialDefinition.Type),
		"c_nonce":         m.nonce,
		"notification_id": "notification-1",
	})
}

func (m *mockIssuer) batchCredential(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchCalls++

	var batch struct {
		CredentialRequests []*credentialRequest `json:"credential_requests"`
	}

	require.NoError(m.t, json.NewDecoder(r.Body).Decode(&batch))
	require.NotEmpty(m.t, batch.CredentialRequests)

	if !m.checkRequest(w, r, batch.CredentialRequests[0]) {
		return
	}

	var responses []map[string]interface{}

	for i, req := range batch.CredentialRequests {
		responses = append(responses, map[string]interface{}{
			"credential":      m.issueCredential(r.Context(), req.CredentialDefinition.Type),
			"notification_id": "batch-notification-" + string(rune('a'+i)),
		})
	}

	m.writeJSON(w, http.StatusOK, map[string]interface{}{
		"credential_responses": responses,
		"c_nonce":              m.nonce,
	})
}

func (m *mockIssuer) notification(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	require.Equal(m.t, "Bearer "+accessToken, r.Header.Get("Authorization"))

	var n map[string]interface{}

	require.NoError(m.t, json.NewDecoder(r.Body).Decode(&n))

	m.notifications = append(m.notifications, n)

	w.WriteHeader(http.StatusNoContent)
}

func (m *mockIssuer) issueCredential(ctx context.Context, types []string) string {
	now := time.Now()

	jws, err := jwtutil.Sign(ctx, m.signer, m.issuer.VerificationMethod, map[string]interface{}{
		"iss": m.issuer.DID,
		"sub": m.holder.DID,
		"jti": "urn:uuid:" + uuid.NewString(),
		"nbf": now.Unix(),
		"iat": now.Unix(),
		"vc": map[string]interface{}{
			"@context": []string{"https://www.w3.org/2018/credentials/v1"},
			"type":     types,
			"credentialSubject": map[string]interface{}{
				"id":        m.holder.DID,
				"name":      "Alice Smith",
				"studentID": "S1234567",
			},
		},
	})
	require.NoError(m.t, err)

	return jws
}

func (m *mockIssuer) signedOffer(ctx context.Context) string {
	var offer map[string]interface{}

	require.NoError(m.t, json.Unmarshal([]byte(m.offerJSON(map[string]interface{}{
		"urn:ietf:params:oauth:grant-type:pre-authorized_code": map[string]interface{}{
			"pre-authorized_code": preAuthCode,
		},
	}, universityDegreeID)), &offer))

	jws, err := jwtutil.Sign(ctx, m.signer, m.issuer.VerificationMethod, map[string]interface{}{
		"iss":              m.issuer.DID,
		"credential_offer": offer,
	})
	require.NoError(m.t, err)

	return jws
}

func (m *mockIssuer) stats() (tokenCalls, credentialCalls, batchCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tokenCalls, m.credentialCalls, m.batchCalls
}

func (m *mockIssuer) recordedNotifications() []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]map[string]interface{}(nil), m.notifications...)
}

func (m *mockIssuer) parStats() (int, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.parCalls, m.parState
}

func (m *mockIssuer) tokenHeader(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.headers.Get(name)
}

func (m *mockIssuer) setChallenge(challenge string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.challenge = challenge
}

func (m *mockIssuer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	require.NoError(m.t, json.NewEncoder(w).Encode(v))
}

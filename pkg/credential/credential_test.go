/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/key"
	"github.com/trustbloc/wallet-engine/pkg/did/resolver"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

//go:embed testdata/university_degree.jsonld
var universityDegree []byte

type ed25519Signer struct {
	key ed25519.PrivateKey
}

func (s *ed25519Signer) Sign(_ context.Context, _ *did.VerificationMethod, payload []byte) ([]byte, error) {
	return ed25519.Sign(s.key, payload), nil
}

func TestParse_LDP(t *testing.T) {
	c, err := credential.Parse(context.Background(), universityDegree)
	require.NoError(t, err)

	require.Equal(t, "http://example.edu/credentials/1872", c.ID())
	require.Equal(t, credential.LDPVC, c.Format())
	require.Equal(t, []string{"VerifiableCredential", "UniversityDegreeCredential"}, c.Types())
	require.True(t, c.HasType("UniversityDegreeCredential"))
	require.False(t, c.HasType("DriversLicense"))
	require.Equal(t, "did:example:76e12ec712ebc6f1c221ebfeb1f", c.Issuer())
	require.Equal(t, []string{"did:example:ebfeb1f712ebc6f1c276e12ec21"}, c.SubjectIDs())
	require.Len(t, c.Contexts(), 2)
	require.Equal(t, "BachelorDegree", c.Value("credentialSubject.degree.type").String())

	contents, err := c.Contents()
	require.NoError(t, err)
	require.Equal(t, "2010-01-01T19:23:24Z", contents["issuanceDate"])

	b, err := json.Marshal(c)
	require.NoError(t, err)
	require.JSONEq(t, string(universityDegree), string(b))

	t.Run("accessors return copies", func(t *testing.T) {
		types := c.Types()
		types[0] = "changed"

		serialized := c.Serialize()
		serialized[0] = 'x'

		vc := c.JSON()
		vc[0] = 'x'

		require.Equal(t, "VerifiableCredential", c.Types()[0])
		require.Equal(t, byte('{'), c.Serialize()[0])
		require.Equal(t, byte('{'), c.JSON()[0])
	})

	t.Run("input is copied", func(t *testing.T) {
		in := append([]byte(nil), universityDegree...)

		parsed, err := credential.Parse(context.Background(), in)
		require.NoError(t, err)

		in[0] = 'x'
		require.Equal(t, bytes.TrimSpace(universityDegree), parsed.Serialize())
	})
}

func TestParse_JWT(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	issuerDID, keyID, err := key.CreateDIDKey(pub)
	require.NoError(t, err)

	r, err := resolver.New()
	require.NoError(t, err)

	doc, err := r.Resolve(context.Background(), issuerDID)
	require.NoError(t, err)

	vm, err := doc.VerificationMethodByID(keyID)
	require.NoError(t, err)

	claims := map[string]interface{}{
		"iss": issuerDID,
		"sub": "did:example:holder",
		"jti": "urn:uuid:1234",
		"nbf": 1700000000,
		"vc": map[string]interface{}{
			"@context":          []string{"https://www.w3.org/2018/credentials/v1"},
			"type":              []string{"VerifiableCredential", "PermanentResidentCard"},
			"credentialSubject": map[string]interface{}{"givenName": "Alice"},
		},
	}

	token, err := jwtutil.Sign(context.Background(), &ed25519Signer{key: priv}, vm, claims)
	require.NoError(t, err)

	t.Run("without proof check", func(t *testing.T) {
		c, err := credential.Parse(context.Background(), []byte(token))
		require.NoError(t, err)

		require.Equal(t, credential.JWTVCJSON, c.Format())
		require.Equal(t, "urn:uuid:1234", c.ID())
		require.Equal(t, issuerDID, c.Issuer())
		require.Equal(t, []string{"did:example:holder"}, c.SubjectIDs())
		require.Equal(t, []string{"VerifiableCredential", "PermanentResidentCard"}, c.Types())
		require.Equal(t, token, string(c.Serialize()))
		require.Equal(t, "Alice", c.Value("credentialSubject.givenName").String())

		b, err := json.Marshal(c)
		require.NoError(t, err)
		require.Equal(t, `"`+token+`"`, string(b))
	})

	t.Run("quoted jwt", func(t *testing.T) {
		c, err := credential.Parse(context.Background(), []byte(`"`+token+`"`))
		require.NoError(t, err)
		require.Equal(t, token, string(c.Serialize()))
	})

	t.Run("with proof check", func(t *testing.T) {
		c, err := credential.Parse(context.Background(), []byte(token), credential.WithProofCheck(r))
		require.NoError(t, err)
		require.Equal(t, "urn:uuid:1234", c.ID())
	})

	t.Run("invalid signature", func(t *testing.T) {
		tampered := token[:len(token)-4] + "AAAA"

		_, err := credential.Parse(context.Background(), []byte(tampered), credential.WithProofCheck(r))
		require.Error(t, err)
		require.True(t, walleterror.Is(err, walleterror.MalformedInput))
		require.Equal(t, credential.ParseFailedCode, walleterror.CodeOf(err))
	})

	t.Run("jwt without credential", func(t *testing.T) {
		other, err := jwtutil.Sign(context.Background(), &ed25519Signer{key: priv}, vm,
			map[string]interface{}{"iss": issuerDID})
		require.NoError(t, err)

		_, err = credential.Parse(context.Background(), []byte(other))
		require.ErrorContains(t, err, "jwt does not contain a verifiable credential")
	})
}

func TestParse_StableID(t *testing.T) {
	vc := []byte(`{"type":["VerifiableCredential"],"credentialSubject":{"name":"x"}}`)

	c1, err := credential.Parse(context.Background(), vc)
	require.NoError(t, err)

	c2, err := credential.Parse(context.Background(), vc)
	require.NoError(t, err)

	require.Equal(t, c1.ID(), c2.ID())
	require.Contains(t, c1.ID(), "urn:uuid:")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  string
	}{
		{name: "empty", in: "  ", err: "empty credential"},
		{name: "json array", in: "[]", err: "parse jwt"},
		{name: "invalid json", in: `{"a":`, err: "credential is not a JSON object"},
		{name: "invalid quoted", in: `"abc`, err: "unquote credential"},
		{name: "not a jwt", in: "abc", err: "parse jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := credential.Parse(context.Background(), []byte(tt.in))
			require.ErrorContains(t, err, tt.err)
			require.True(t, walleterror.Is(err, walleterror.MalformedInput))
		})
	}

	_, err := credential.Parse(context.Background(), []byte(`{"a":1}`), credential.WithFormat(credential.JWTVCJSON))
	require.ErrorContains(t, err, "parse jwt")
}

func TestCollection(t *testing.T) {
	c1, err := credential.Parse(context.Background(), universityDegree)
	require.NoError(t, err)

	c2, err := credential.Parse(context.Background(), []byte(`{"id":"urn:2","type":"VerifiableCredential"}`))
	require.NoError(t, err)

	coll := credential.NewCollection(c1)
	coll.Add(c2)
	coll.Add(c1)

	require.Equal(t, 3, coll.Length())
	require.Equal(t, c1, coll.AtIndex(0))
	require.Equal(t, c2, coll.AtIndex(1))
	require.Equal(t, c1, coll.AtIndex(2))
	require.Nil(t, coll.AtIndex(3))
	require.Nil(t, coll.AtIndex(-1))
	require.Equal(t, []string{"VerifiableCredential"}, coll.AtIndex(1).Types())

	all := coll.All()
	all[0] = nil
	require.Equal(t, c1, coll.AtIndex(0))

	var nilColl *credential.Collection
	require.Equal(t, 0, nilColl.Length())
	require.Nil(t, nilColl.All())
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/pkg/did"
)

func TestVerificationMethods(t *testing.T) {
	t.Run("returns the first verification method of each relation", func(t *testing.T) {
		doc := newDIDDoc()

		result, err := did.VerificationMethods(doc, did.AssertionMethod, did.Authentication)
		require.NoError(t, err)
		require.Len(t, result, 2)
		require.Equal(t, "did:example:123#key-2", result[0].ID)
		require.Equal(t, "did:example:123#key-1", result[1].ID)
	})

	t.Run("error if relation has no verification method", func(t *testing.T) {
		doc := newDIDDoc()
		doc.Authentication = nil

		_, err := did.VerificationMethods(doc, did.Authentication)
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not have a verification method for relation authentication")
	})

	t.Run("error if relation references an unknown method", func(t *testing.T) {
		doc := newDIDDoc()
		doc.AssertionMethod = []string{"did:example:123#missing"}

		_, err := did.VerificationMethods(doc, did.AssertionMethod)
		require.ErrorIs(t, err, did.ErrNotFound)
	})
}

func TestFragments(t *testing.T) {
	t.Run("returns the fragment", func(t *testing.T) {
		expected := "key-1"
		result, err := did.Fragments("did:example:123#" + expected)
		require.NoError(t, err)
		require.Equal(t, []string{expected}, result)
	})

	t.Run("error if url does not have a fragment", func(t *testing.T) {
		_, err := did.Fragments("did:example:123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "no fragment in url")
	})
}

func newDIDDoc() *did.Document {
	return &did.Document{
		ID: "did:example:123",
		VerificationMethod: []did.VerificationMethod{
			{ID: "did:example:123#key-1", Type: did.Ed25519VerificationKey2018},
			{ID: "did:example:123#key-2", Type: did.Ed25519VerificationKey2018},
		},
		Authentication:  []string{"did:example:123#key-1"},
		AssertionMethod: []string{"#key-2"},
	}
}

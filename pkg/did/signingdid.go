/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

// SigningDID is a DID created for the wallet together with the verification method it signs with.
type SigningDID struct {
	DID                string
	KeyID              string
	VerificationMethod *VerificationMethod
	Document           *Document
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"github.com/trustbloc/wallet-engine/pkg/credential"
)

const (
	// PresentationSubmissionJSONLDContextIRI is the JSONLD context of presentation submissions.
	PresentationSubmissionJSONLDContextIRI = "https://identity.foundation/presentation-exchange/submission/v1"
	// CredentialsJSONLDContextIRI is the base JSONLD context of verifiable presentations.
	CredentialsJSONLDContextIRI = "https://www.w3.org/2018/credentials/v1"
	// PresentationSubmissionJSONLDType is the JSONLD type of presentation submissions.
	PresentationSubmissionJSONLDType = "PresentationSubmission"
	// VerifiablePresentationJSONLDType is the JSONLD type of verifiable presentations.
	VerifiablePresentationJSONLDType = "VerifiablePresentation"
)

// PresentationSubmission is the container for the descriptor_map.
type PresentationSubmission struct {
	ID            string                    `json:"id"`
	DefinitionID  string                    `json:"definition_id"`
	DescriptorMap []*InputDescriptorMapping `json:"descriptor_map"`
}

// InputDescriptorMapping maps an InputDescriptor to a credential in the presentation.
type InputDescriptorMapping struct {
	ID         string                  `json:"id"`
	Format     string                  `json:"format"`
	Path       string                  `json:"path"`
	PathNested *InputDescriptorMapping `json:"path_nested,omitempty"`
}

// PresentationContent is the outcome of a credential selection: the ordered credentials and the
// submission that maps them to the input descriptors.
type PresentationContent struct {
	Credentials []*credential.Credential
	Submission  *PresentationSubmission
}

// Presentation returns the JSON object of a verifiable presentation with an embedded presentation
// submission. holder is omitted when empty.
func (p *PresentationContent) Presentation(holder string) map[string]interface{} {
	vp := map[string]interface{}{
		"@context":                []string{CredentialsJSONLDContextIRI, PresentationSubmissionJSONLDContextIRI},
		"type":                    []string{VerifiablePresentationJSONLDType, PresentationSubmissionJSONLDType},
		"verifiableCredential":    p.Credentials,
		"presentation_submission": p.Submission,
	}

	if holder != "" {
		vp["holder"] = holder
	}

	return vp
}

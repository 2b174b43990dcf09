/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// All rule`s value.
	All Rule = "all"
	// Pick rule`s value.
	Pick Rule = "pick"

	// Required predicate`s value.
	Required Preference = "required"
	// Preferred predicate`s value.
	Preferred Preference = "preferred"
)

type (
	// Rule can be "all" or "pick".
	Rule string
	// Preference can be "required" or "preferred".
	Preference string
)

// Format maps claim format designations (jwt_vc_json, ldp_vc, ...) to their algorithm or proof type constraints.
type Format map[string]json.RawMessage

// PresentationDefinition presentation definitions (https://identity.foundation/presentation-exchange/).
type PresentationDefinition struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Purpose string `json:"purpose,omitempty"`
	Locale  string `json:"locale,omitempty"`
	// Format restricts the credential formats the verifier accepts for every descriptor.
	Format Format `json:"format,omitempty"`
	// SubmissionRequirements when absent, all inputs listed in InputDescriptors are required.
	SubmissionRequirements []*SubmissionRequirement `json:"submission_requirements,omitempty"`
	InputDescriptors       []*InputDescriptor       `json:"input_descriptors"`
}

// SubmissionRequirement describes input that must be submitted via a Presentation Submission
// to satisfy Verifier demands.
type SubmissionRequirement struct {
	Name       string                   `json:"name,omitempty"`
	Purpose    string                   `json:"purpose,omitempty"`
	Rule       Rule                     `json:"rule"`
	Count      int                      `json:"count,omitempty"`
	Min        int                      `json:"min,omitempty"`
	Max        int                      `json:"max,omitempty"`
	From       string                   `json:"from,omitempty"`
	FromNested []*SubmissionRequirement `json:"from_nested,omitempty"`
}

// InputDescriptor describes a credential the verifier asks for.
type InputDescriptor struct {
	ID          string                 `json:"id"`
	Group       []string               `json:"group,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Purpose     string                 `json:"purpose,omitempty"`
	Format      Format                 `json:"format,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Schema      []*Schema              `json:"schema,omitempty"`
	Constraints *Constraints           `json:"constraints,omitempty"`
}

// Schema is a legacy (Presentation Exchange v1) schema reference.
type Schema struct {
	URI      string `json:"uri"`
	Required bool   `json:"required,omitempty"`
}

// Holder describes Constraints`s holder object.
type Holder struct {
	FieldID   []string    `json:"field_id,omitempty"`
	Directive *Preference `json:"directive,omitempty"`
}

// Constraints describes InputDescriptor`s Constraints field.
type Constraints struct {
	LimitDisclosure interface{}   `json:"limit_disclosure,omitempty"`
	SubjectIsIssuer *Preference   `json:"subject_is_issuer,omitempty"`
	IsHolder        []*Holder     `json:"is_holder,omitempty"`
	SameSubject     []interface{} `json:"same_subject,omitempty"`
	Fields          []*Field      `json:"fields,omitempty"`
}

// Field describes Constraints`s Fields field.
type Field struct {
	ID             string                 `json:"id,omitempty"`
	Path           []string               `json:"path"`
	Name           string                 `json:"name,omitempty"`
	Purpose        string                 `json:"purpose,omitempty"`
	Filter         map[string]interface{} `json:"filter,omitempty"`
	Optional       bool                   `json:"optional,omitempty"`
	IntentToRetain bool                   `json:"intent_to_retain,omitempty"`
	Predicate      *Preference            `json:"predicate,omitempty"`
}

// ParseDefinition decodes and validates a presentation definition. The definition may be wrapped in a
// "presentation_definition" property.
func ParseDefinition(b []byte) (*PresentationDefinition, error) {
	if wrapped := gjson.GetBytes(b, "presentation_definition"); wrapped.IsObject() {
		b = []byte(wrapped.Raw)
	}

	if err := validateSchema(b); err != nil {
		return nil, queryError(fmt.Errorf("invalid presentation definition: %w", err), "ParseDefinition")
	}

	pd := &PresentationDefinition{}
	if err := json.Unmarshal(b, pd); err != nil {
		return nil, queryError(fmt.Errorf("decode presentation definition: %w", err), "ParseDefinition")
	}

	return pd, nil
}

func validateSchema(b []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(b),
	)
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	resultErrors := result.Errors()

	errs := make([]string, len(resultErrors))
	for i := range resultErrors {
		errs[i] = resultErrors[i].String()
	}

	return errors.New(strings.Join(errs, ","))
}

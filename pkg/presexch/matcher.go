/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/trustbloc/logutil-go/pkg/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/credential"
)

var logger = log.New("presexch")

var pathLanguage = gval.Full(jsonpath.PlaceholderExtension())

// Matcher evaluates presentation definitions against wallet credentials. It holds no state and is safe
// for concurrent use.
type Matcher struct{}

// NewMatcher returns a new Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Evaluate matches every input descriptor of pd against every credential in creds and returns the
// submission requirement tree. Unsatisfied branches are part of the result; an error is returned only
// when the definition itself cannot be evaluated.
func (m *Matcher) Evaluate(
	ctx context.Context,
	pd *PresentationDefinition,
	creds *credential.Collection,
) ([]*Requirement, error) {
	const operation = "Evaluate"

	descriptors, err := compile(pd)
	if err != nil {
		return nil, queryError(err, operation)
	}

	candidates, err := newCandidates(creds.All())
	if err != nil {
		return nil, queryError(err, operation)
	}

	matches := make(map[string][]*credential.Credential, len(descriptors))

	for _, d := range descriptors {
		for _, c := range candidates {
			if d.matches(c) {
				matches[d.ID] = append(matches[d.ID], c.cred)
			}
		}

		logger.Debugc(ctx, "Input descriptor evaluated",
			logfields.WithPresDefID(pd.ID),
			logfields.WithDescriptorID(d.ID),
			logfields.WithMatchCount(len(matches[d.ID])))
	}

	if len(pd.SubmissionRequirements) == 0 {
		req := &Requirement{Kind: Leaf, Rule: All}

		for _, d := range descriptors {
			req.Descriptors = append(req.Descriptors, matchedDescriptor(d.InputDescriptor, matches))
		}

		return []*Requirement{req}, nil
	}

	requirements := make([]*Requirement, len(pd.SubmissionRequirements))

	for i, sr := range pd.SubmissionRequirements {
		requirements[i], err = buildRequirement(pd, sr, matches)
		if err != nil {
			return nil, queryError(err, operation)
		}
	}

	return requirements, nil
}

// BuildPresentation associates every selected credential with each input descriptor it satisfies and
// returns the credentials together with the presentation submission that describes them.
func (m *Matcher) BuildPresentation(
	ctx context.Context,
	pd *PresentationDefinition,
	selected []*credential.Credential,
) (*PresentationContent, error) {
	const operation = "BuildPresentation"

	descriptors, err := compile(pd)
	if err != nil {
		return nil, queryError(err, operation)
	}

	if len(selected) == 0 {
		return nil, selectionError(errors.New("no credentials selected"), operation)
	}

	candidates, err := newCandidates(selected)
	if err != nil {
		return nil, selectionError(err, operation)
	}

	submission := &PresentationSubmission{
		ID:           uuid.NewString(),
		DefinitionID: pd.ID,
	}

	for i, c := range candidates {
		matched := false

		for _, d := range descriptors {
			if !d.matches(c) {
				continue
			}

			matched = true

			submission.DescriptorMap = append(submission.DescriptorMap, &InputDescriptorMapping{
				ID:     d.ID,
				Format: string(c.cred.Format()),
				Path:   fmt.Sprintf("$.verifiableCredential[%d]", i),
			})
		}

		if !matched {
			return nil, selectionError(
				fmt.Errorf("credential %s does not match any input descriptor", c.cred.ID()), operation).
				WithIncorrectValue(c.cred.ID())
		}
	}

	logger.Debugc(ctx, "Presentation built", logfields.WithPresDefID(pd.ID),
		logfields.WithMatchCount(len(submission.DescriptorMap)))

	return &PresentationContent{
		Credentials: append([]*credential.Credential(nil), selected...),
		Submission:  submission,
	}, nil
}

func matchedDescriptor(d *InputDescriptor, matches map[string][]*credential.Credential) *MatchedDescriptor {
	return &MatchedDescriptor{
		ID:         d.ID,
		Name:       d.Name,
		Purpose:    d.Purpose,
		MatchedVCs: append([]*credential.Credential(nil), matches[d.ID]...),
	}
}

func buildRequirement(
	pd *PresentationDefinition,
	sr *SubmissionRequirement,
	matches map[string][]*credential.Credential,
) (*Requirement, error) {
	if err := validateRequirement(sr); err != nil {
		return nil, err
	}

	req := &Requirement{
		Name:    sr.Name,
		Purpose: sr.Purpose,
		Rule:    sr.Rule,
		Count:   sr.Count,
		Min:     sr.Min,
		Max:     sr.Max,
	}

	if sr.From != "" {
		req.Kind = Leaf

		for _, d := range pd.InputDescriptors {
			if lo.Contains(d.Group, sr.From) {
				req.Descriptors = append(req.Descriptors, matchedDescriptor(d, matches))
			}
		}

		if len(req.Descriptors) == 0 {
			return nil, fmt.Errorf("submission requirement %q references unknown group %q", sr.Name, sr.From)
		}

		return req, nil
	}

	req.Kind = Composite

	for _, nested := range sr.FromNested {
		child, err := buildRequirement(pd, nested, matches)
		if err != nil {
			return nil, err
		}

		req.Nested = append(req.Nested, child)
	}

	return req, nil
}

func validateRequirement(sr *SubmissionRequirement) error {
	if sr == nil {
		return errors.New("submission requirement is empty")
	}

	switch {
	case sr.Rule != All && sr.Rule != Pick:
		return fmt.Errorf("submission requirement %q has unknown rule %q", sr.Name, sr.Rule)
	case sr.From != "" && len(sr.FromNested) > 0:
		return fmt.Errorf("submission requirement %q has both from and from_nested", sr.Name)
	case sr.From == "" && len(sr.FromNested) == 0:
		return fmt.Errorf("submission requirement %q has neither from nor from_nested", sr.Name)
	case sr.Count < 0 || sr.Min < 0 || sr.Max < 0:
		return fmt.Errorf("submission requirement %q has a negative count, min or max", sr.Name)
	case sr.Min > 0 && sr.Max > 0 && sr.Min > sr.Max:
		return fmt.Errorf("submission requirement %q has min %d greater than max %d", sr.Name, sr.Min, sr.Max)
	case sr.Count > 0 && ((sr.Min > 0 && sr.Count < sr.Min) || (sr.Max > 0 && sr.Count > sr.Max)):
		return fmt.Errorf("submission requirement %q has count %d outside [%d, %d]",
			sr.Name, sr.Count, sr.Min, sr.Max)
	}

	return nil
}

type candidate struct {
	cred *credential.Credential
	doc  map[string]interface{}
}

func newCandidates(creds []*credential.Credential) ([]*candidate, error) {
	candidates := make([]*candidate, 0, len(creds))

	for _, c := range creds {
		if c == nil {
			return nil, errors.New("credential is nil")
		}

		doc, err := c.Contents()
		if err != nil {
			return nil, fmt.Errorf("decode credential %s: %w", c.ID(), err)
		}

		candidates = append(candidates, &candidate{cred: c, doc: doc})
	}

	return candidates, nil
}

type compiledField struct {
	*Field
	paths  []gval.Evaluable
	filter *gojsonschema.Schema
}

type compiledDescriptor struct {
	*InputDescriptor
	formats Format
	fields  []*compiledField
}

func compile(pd *PresentationDefinition) ([]*compiledDescriptor, error) {
	if pd == nil {
		return nil, errors.New("presentation definition is empty")
	}

	if len(pd.InputDescriptors) == 0 {
		return nil, errors.New("presentation definition has no input descriptors")
	}

	descriptors := make([]*compiledDescriptor, 0, len(pd.InputDescriptors))
	seen := make(map[string]struct{}, len(pd.InputDescriptors))

	for _, d := range pd.InputDescriptors {
		if d == nil {
			return nil, errors.New("input descriptor is empty")
		}

		if _, ok := seen[d.ID]; ok {
			return nil, fmt.Errorf("duplicate input descriptor id %q", d.ID)
		}

		seen[d.ID] = struct{}{}

		cd, err := compileDescriptor(d)
		if err != nil {
			return nil, fmt.Errorf("input descriptor %q: %w", d.ID, err)
		}

		if len(cd.formats) == 0 {
			cd.formats = pd.Format
		}

		descriptors = append(descriptors, cd)
	}

	return descriptors, nil
}

func compileDescriptor(d *InputDescriptor) (*compiledDescriptor, error) {
	cd := &compiledDescriptor{InputDescriptor: d, formats: d.Format}

	if d.Constraints == nil {
		return cd, nil
	}

	if err := checkSupported(d.Constraints); err != nil {
		return nil, err
	}

	for _, f := range d.Constraints.Fields {
		cf, err := compileField(f)
		if err != nil {
			return nil, err
		}

		cd.fields = append(cd.fields, cf)
	}

	return cd, nil
}

func checkSupported(c *Constraints) error {
	switch {
	case c.SubjectIsIssuer != nil:
		return errors.New("unsupported constraint subject_is_issuer")
	case len(c.IsHolder) > 0:
		return errors.New("unsupported constraint is_holder")
	case len(c.SameSubject) > 0:
		return errors.New("unsupported constraint same_subject")
	}

	return nil
}

func compileField(f *Field) (*compiledField, error) {
	if f == nil || len(f.Path) == 0 {
		return nil, errors.New("field has no path")
	}

	cf := &compiledField{Field: f}

	for _, p := range f.Path {
		eval, err := pathLanguage.NewEvaluable(p)
		if err != nil {
			return nil, fmt.Errorf("invalid JSONPath %q: %w", p, err)
		}

		cf.paths = append(cf.paths, eval)
	}

	if f.Filter != nil {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(f.Filter))
		if err != nil {
			return nil, fmt.Errorf("invalid filter for path %s: %w", strings.Join(f.Path, ","), err)
		}

		cf.filter = schema
	}

	return cf, nil
}

func (d *compiledDescriptor) matches(c *candidate) bool {
	if !formatAccepted(d.formats, c.cred.Format()) {
		return false
	}

	if !schemaMatches(d.Schema, c.cred) {
		return false
	}

	for _, f := range d.fields {
		if f.Optional {
			continue
		}

		if !f.matches(c.doc) {
			return false
		}
	}

	return true
}

func (f *compiledField) matches(doc map[string]interface{}) bool {
	// JWT credentials are matched by paths rooted at either the VC or the enclosing "vc" claim.
	roots := []interface{}{doc, map[string]interface{}{"vc": doc}}

	for _, path := range f.paths {
		for _, root := range roots {
			value, err := path(context.Background(), root)
			if err != nil {
				continue
			}

			if f.accepts(value) {
				return true
			}
		}
	}

	return false
}

func (f *compiledField) accepts(value interface{}) bool {
	if f.filter == nil {
		return true
	}

	if f.valid(value) {
		return true
	}

	if values, ok := value.([]interface{}); ok {
		for _, v := range values {
			if f.valid(v) {
				return true
			}
		}
	}

	return false
}

func (f *compiledField) valid(value interface{}) bool {
	result, err := f.filter.Validate(gojsonschema.NewGoLoader(value))

	return err == nil && result.Valid()
}

var formatAliases = map[string][]string{
	string(credential.JWTVCJSON):   {"jwt_vc_json", "jwt_vc", "jwt"},
	string(credential.JWTVCJSONLD): {"jwt_vc_json-ld", "jwt_vc", "jwt"},
	string(credential.LDPVC):       {"ldp_vc", "ldp"},
}

func formatAccepted(formats Format, f credential.Format) bool {
	if len(formats) == 0 {
		return true
	}

	for _, alias := range formatAliases[string(f)] {
		if _, ok := formats[alias]; ok {
			return true
		}
	}

	_, ok := formats[string(f)]

	return ok
}

func schemaMatches(schemas []*Schema, c *credential.Credential) bool {
	if len(schemas) == 0 {
		return true
	}

	found := false

	for _, s := range schemas {
		ok := uriMatches(s.URI, c)
		if s.Required && !ok {
			return false
		}

		found = found || ok
	}

	return found
}

func uriMatches(uri string, c *credential.Credential) bool {
	if c.HasType(uri) || lo.Contains(c.Contexts(), uri) {
		return true
	}

	if i := strings.LastIndex(uri, "#"); i >= 0 && i < len(uri)-1 {
		return c.HasType(uri[i+1:])
	}

	return false
}

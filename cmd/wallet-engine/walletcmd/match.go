/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing/wrappers/matcher"
	"github.com/trustbloc/wallet-engine/pkg/presexch"
)

const (
	queryFlagName  = "query"
	queryFlagUsage = "Presentation definition as JSON or @file."

	credentialFlagName  = "credential"
	credentialFlagUsage = "ID of a stored credential to consider. May be repeated. Defaults to all stored credentials."
)

type requirementResult struct {
	Name        string               `json:"name,omitempty"`
	Purpose     string               `json:"purpose,omitempty"`
	Rule        presexch.Rule        `json:"rule,omitempty"`
	Satisfied   bool                 `json:"satisfied"`
	Descriptors []*descriptorResult  `json:"descriptors,omitempty"`
	Nested      []*requirementResult `json:"nested,omitempty"`
}

type descriptorResult struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Credentials []string `json:"credentials"`
}

// wallet credentials as seen by a presentation: the parsed credentials and the keys they are stored under.
type holdings struct {
	creds []*credential.Credential
	ids   map[*credential.Credential]string
}

func (h *holdings) idOf(c *credential.Credential) string {
	return h.ids[c]
}

func loadHoldings(ctx context.Context, e *engine, selected []string) (*holdings, error) {
	h := &holdings{ids: map[*credential.Credential]string{}}

	if len(selected) > 0 {
		for _, id := range lo.Uniq(selected) {
			c, err := e.credentials.Get(ctx, id)
			if err != nil {
				return nil, err
			}

			h.creds = append(h.creds, c)
			h.ids[c] = id
		}

		return h, nil
	}

	ids, creds, err := e.credentials.All(ctx)
	if err != nil {
		return nil, err
	}

	for i, c := range creds {
		h.ids[c] = ids[i]
	}

	h.creds = creds

	return h, nil
}

func newMatcher(e *engine) *matcher.Wrapper {
	return matcher.Wrap(presexch.NewMatcher(), e.tracer)
}

func newMatchCmd() *cobra.Command {
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Evaluate a presentation definition against the stored credentials",
		RunE: runWithEngine(func(cmd *cobra.Command, _ []string, e *engine) error {
			query, _ := cmd.Flags().GetString(queryFlagName)
			selected, _ := cmd.Flags().GetStringArray(credentialFlagName)

			if query == "" {
				return errors.New("--query is required")
			}

			b, err := readInput(query)
			if err != nil {
				return err
			}

			pd, err := presexch.ParseDefinition(b)
			if err != nil {
				return err
			}

			h, err := loadHoldings(cmd.Context(), e, selected)
			if err != nil {
				return err
			}

			reqs, err := newMatcher(e).Evaluate(cmd.Context(), pd, credential.NewCollection(h.creds...))
			if err != nil {
				return err
			}

			return printJSON(cmd, lo.Map(reqs, func(r *presexch.Requirement, _ int) *requirementResult {
				return toRequirementResult(r, h)
			}))
		}),
	}

	matchCmd.Flags().String(queryFlagName, "", queryFlagUsage)
	matchCmd.Flags().StringArray(credentialFlagName, nil, credentialFlagUsage)

	return matchCmd
}

func toRequirementResult(r *presexch.Requirement, h *holdings) *requirementResult {
	res := &requirementResult{
		Name:      r.Name,
		Purpose:   r.Purpose,
		Rule:      r.Rule,
		Satisfied: r.Satisfied(),
	}

	for _, d := range r.Descriptors {
		res.Descriptors = append(res.Descriptors, &descriptorResult{
			ID:          d.ID,
			Name:        d.Name,
			Credentials: lo.Map(d.MatchedVCs, func(c *credential.Credential, _ int) string { return h.idOf(c) }),
		})
	}

	for _, n := range r.Nested {
		res.Nested = append(res.Nested, toRequirementResult(n, h))
	}

	return res
}

// selectCredentials picks the first match of every satisfied descriptor, each credential at most once.
func selectCredentials(reqs []*presexch.Requirement) []*credential.Credential {
	var selected []*credential.Credential

	var walk func(r *presexch.Requirement)

	walk = func(r *presexch.Requirement) {
		for _, d := range r.Descriptors {
			if d.Satisfied() && !lo.Contains(selected, d.MatchedVCs[0]) {
				selected = append(selected, d.MatchedVCs[0])
			}
		}

		for _, n := range r.Nested {
			walk(n)
		}
	}

	for _, r := range reqs {
		walk(r)
	}

	return selected
}

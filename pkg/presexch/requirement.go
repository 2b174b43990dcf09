/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"github.com/trustbloc/wallet-engine/pkg/credential"
)

// RequirementKind tells whether a Requirement references descriptors directly or nests other requirements.
type RequirementKind int

const (
	// Leaf requirements apply their rule to input descriptors.
	Leaf RequirementKind = iota
	// Composite requirements apply their rule to nested requirements.
	Composite
)

func (k RequirementKind) String() string {
	if k == Composite {
		return "composite"
	}

	return "leaf"
}

// Requirement is one node of the evaluated submission requirement tree.
type Requirement struct {
	Kind    RequirementKind
	Name    string
	Purpose string
	Rule    Rule
	Count   int
	Min     int
	Max     int

	// Nested is set for Composite requirements.
	Nested []*Requirement
	// Descriptors is set for Leaf requirements.
	Descriptors []*MatchedDescriptor
}

// MatchedDescriptor is an input descriptor together with the credentials that satisfy it.
type MatchedDescriptor struct {
	ID         string
	Name       string
	Purpose    string
	MatchedVCs []*credential.Credential
}

// MatchedIDs returns the IDs of the matched credentials in collection order.
func (d *MatchedDescriptor) MatchedIDs() []string {
	ids := make([]string, len(d.MatchedVCs))
	for i, vc := range d.MatchedVCs {
		ids[i] = vc.ID()
	}

	return ids
}

// Satisfied reports whether the descriptor has at least one match.
func (d *MatchedDescriptor) Satisfied() bool {
	return len(d.MatchedVCs) > 0
}

// Satisfied evaluates the rule of the requirement against the satisfaction of its children.
// A requirement with no satisfied children is never satisfied.
func (r *Requirement) Satisfied() bool {
	total, satisfied := r.childCounts()

	if satisfied == 0 {
		return false
	}

	if r.Rule == All {
		return satisfied == total
	}

	return r.acceptsCount(satisfied)
}

func (r *Requirement) childCounts() (int, int) {
	satisfied := 0

	if r.Kind == Composite {
		for _, n := range r.Nested {
			if n.Satisfied() {
				satisfied++
			}
		}

		return len(r.Nested), satisfied
	}

	for _, d := range r.Descriptors {
		if d.Satisfied() {
			satisfied++
		}
	}

	return len(r.Descriptors), satisfied
}

func (r *Requirement) acceptsCount(n int) bool {
	if r.Count > 0 {
		return n == r.Count
	}

	if r.Min > 0 && n < r.Min {
		return false
	}

	if r.Max > 0 && n > r.Max {
		return false
	}

	return true
}

// DescriptorIDs lists the IDs of every descriptor referenced by the requirement and its nested requirements.
func (r *Requirement) DescriptorIDs() []string {
	var ids []string

	for _, d := range r.Descriptors {
		ids = append(ids, d.ID)
	}

	for _, n := range r.Nested {
		ids = append(ids, n.DescriptorIDs()...)
	}

	return ids
}

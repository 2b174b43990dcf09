/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
	"net/url"
)

// VerificationRelationship names a verification relationship of a DID document.
type VerificationRelationship int

// Verification relationships used by the engine.
const (
	Authentication VerificationRelationship = iota
	AssertionMethod
)

func (r VerificationRelationship) String() string {
	switch r {
	case Authentication:
		return "authentication"
	case AssertionMethod:
		return "assertionMethod"
	default:
		return fmt.Sprintf("relationship(%d)", int(r))
	}
}

// VerificationMethods returns the first verification method encountered for all relations in the same given order.
// At least one relation must be provided.
func VerificationMethods(d *Document, relations ...VerificationRelationship) ([]*VerificationMethod, error) {
	vm := make([]*VerificationMethod, 0, len(relations))

	for _, relation := range relations {
		var ids []string

		switch relation {
		case Authentication:
			ids = d.Authentication
		case AssertionMethod:
			ids = d.AssertionMethod
		}

		if len(ids) == 0 {
			return nil, fmt.Errorf("did %s does not have a verification method for relation %s", d.ID, relation)
		}

		method, err := d.VerificationMethodByID(ids[0])
		if err != nil {
			return nil, err
		}

		vm = append(vm, method)
	}

	return vm, nil
}

// Fragments parses each url and returns the fragments in the same order.
func Fragments(didURLs ...string) ([]string, error) {
	f := make([]string, len(didURLs))

	for i, didURL := range didURLs {
		u, err := url.Parse(didURL)
		if err != nil {
			return nil, fmt.Errorf("not a URL: %s", didURL)
		}

		if u.Fragment == "" {
			return nil, fmt.Errorf("no fragment in url %s", didURL)
		}

		f[i] = u.Fragment
	}

	return f, nil
}

/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

// Collection is an ordered list of credentials. Insertion order is kept and duplicates are allowed.
type Collection struct {
	credentials []*Credential
}

// NewCollection returns a collection holding creds in order.
func NewCollection(creds ...*Credential) *Collection {
	return &Collection{credentials: append([]*Credential(nil), creds...)}
}

// Add appends c.
func (c *Collection) Add(cred *Credential) {
	c.credentials = append(c.credentials, cred)
}

// AtIndex returns the credential at index, or nil when index is out of range.
func (c *Collection) AtIndex(index int) *Credential {
	if index < 0 || index >= len(c.credentials) {
		return nil
	}

	return c.credentials[index]
}

// Length returns the number of credentials.
func (c *Collection) Length() int {
	if c == nil {
		return 0
	}

	return len(c.credentials)
}

// All returns the credentials in insertion order.
func (c *Collection) All() []*Credential {
	if c == nil {
		return nil
	}

	return append([]*Credential(nil), c.credentials...)
}

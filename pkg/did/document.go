/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/go-jose/go-jose/v3"
)

// Verification method types understood by the engine.
const (
	JSONWebKey2020             = "JsonWebKey2020"
	Ed25519VerificationKey2018 = "Ed25519VerificationKey2018"
	Ed25519VerificationKey2020 = "Ed25519VerificationKey2020"
)

// ErrNotFound is returned when a DID or a verification method cannot be found.
var ErrNotFound = errors.New("not found")

// VerificationMethod is a public key entry of a DID document.
type VerificationMethod struct {
	ID                 string           `json:"id"`
	Type               string           `json:"type"`
	Controller         string           `json:"controller,omitempty"`
	PublicKeyJWK       *jose.JSONWebKey `json:"publicKeyJwk,omitempty"`
	PublicKeyBase58    string           `json:"publicKeyBase58,omitempty"`
	PublicKeyMultibase string           `json:"publicKeyMultibase,omitempty"`
}

// DID returns the DID part of the verification method ID.
func (vm *VerificationMethod) DID() string {
	did, _, _ := strings.Cut(vm.ID, "#")

	return did
}

// PublicKey returns the public key of the verification method as a JWK.
func (vm *VerificationMethod) PublicKey() (*jose.JSONWebKey, error) {
	if vm.PublicKeyJWK != nil {
		return vm.PublicKeyJWK, nil
	}

	var raw []byte

	switch {
	case vm.PublicKeyBase58 != "":
		raw = base58.Decode(vm.PublicKeyBase58)
	case strings.HasPrefix(vm.PublicKeyMultibase, "z"):
		raw = base58.Decode(vm.PublicKeyMultibase[1:])
		// Ed25519VerificationKey2020 keys carry the multicodec prefix.
		if len(raw) == ed25519.PublicKeySize+2 {
			raw = raw[2:]
		}
	default:
		return nil, fmt.Errorf("verification method %s has no supported public key", vm.ID)
	}

	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("verification method %s: invalid ed25519 key size %d", vm.ID, len(raw))
	}

	return &jose.JSONWebKey{Key: ed25519.PublicKey(raw), KeyID: vm.ID}, nil
}

// Algorithm returns the JWS algorithm matching the verification method key.
func (vm *VerificationMethod) Algorithm() (jose.SignatureAlgorithm, error) {
	jwk, err := vm.PublicKey()
	if err != nil {
		return "", err
	}

	switch key := jwk.Key.(type) {
	case ed25519.PublicKey:
		return jose.EdDSA, nil
	case *ecdsa.PublicKey:
		switch key.Curve {
		case elliptic.P256():
			return jose.ES256, nil
		case elliptic.P384():
			return jose.ES384, nil
		case elliptic.P521():
			return jose.ES512, nil
		}
	}

	return "", fmt.Errorf("verification method %s: unsupported key type %T", vm.ID, jwk.Key)
}

// Document is the subset of a DID document used by the engine.
type Document struct {
	Context            interface{}          `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"-"`
	AssertionMethod    []string             `json:"-"`
}

type rawDocument struct {
	Context            interface{}          `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []json.RawMessage    `json:"authentication,omitempty"`
	AssertionMethod    []json.RawMessage    `json:"assertionMethod,omitempty"`
}

type resolution struct {
	DIDDocument json.RawMessage `json:"didDocument"`
}

// ParseDocument parses a DID document or a DID resolution result wrapping one.
func ParseDocument(b []byte) (*Document, error) {
	var res resolution
	if err := json.Unmarshal(b, &res); err == nil && len(res.DIDDocument) > 0 {
		b = res.DIDDocument
	}

	var raw rawDocument
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal did document: %w", err)
	}

	if raw.ID == "" {
		return nil, errors.New("did document has no id")
	}

	doc := &Document{
		Context:            raw.Context,
		ID:                 raw.ID,
		VerificationMethod: raw.VerificationMethod,
	}

	for i := range doc.VerificationMethod {
		doc.VerificationMethod[i].ID = doc.absoluteID(doc.VerificationMethod[i].ID)
	}

	var err error

	if doc.Authentication, err = doc.relationship(raw.Authentication); err != nil {
		return nil, fmt.Errorf("authentication: %w", err)
	}

	if doc.AssertionMethod, err = doc.relationship(raw.AssertionMethod); err != nil {
		return nil, fmt.Errorf("assertionMethod: %w", err)
	}

	return doc, nil
}

// MarshalJSON writes relationships as references.
func (d *Document) MarshalJSON() ([]byte, error) {
	raw := rawDocument{
		Context:            d.Context,
		ID:                 d.ID,
		VerificationMethod: d.VerificationMethod,
	}

	for _, id := range d.Authentication {
		b, _ := json.Marshal(id) //nolint:errchkjson
		raw.Authentication = append(raw.Authentication, b)
	}

	for _, id := range d.AssertionMethod {
		b, _ := json.Marshal(id) //nolint:errchkjson
		raw.AssertionMethod = append(raw.AssertionMethod, b)
	}

	return json.Marshal(raw)
}

// relationship collects referenced IDs and adds embedded verification methods to the document.
func (d *Document) relationship(entries []json.RawMessage) ([]string, error) {
	var ids []string

	for _, entry := range entries {
		var ref string
		if err := json.Unmarshal(entry, &ref); err == nil {
			ids = append(ids, d.absoluteID(ref))

			continue
		}

		var vm VerificationMethod
		if err := json.Unmarshal(entry, &vm); err != nil {
			return nil, fmt.Errorf("unmarshal verification method: %w", err)
		}

		vm.ID = d.absoluteID(vm.ID)
		d.VerificationMethod = append(d.VerificationMethod, vm)
		ids = append(ids, vm.ID)
	}

	return ids, nil
}

func (d *Document) absoluteID(id string) string {
	if strings.HasPrefix(id, "#") {
		return d.ID + id
	}

	return id
}

// VerificationMethodByID returns the verification method with the given absolute or relative ID.
func (d *Document) VerificationMethodByID(id string) (*VerificationMethod, error) {
	id = d.absoluteID(id)

	for i := range d.VerificationMethod {
		if d.VerificationMethod[i].ID == id {
			return &d.VerificationMethod[i], nil
		}
	}

	return nil, fmt.Errorf("verification method %s: %w", id, ErrNotFound)
}

// AssertionMethods returns the verification methods usable for signing credentials and presentations.
// Documents without an assertionMethod relationship expose all verification methods.
func (d *Document) AssertionMethods() []*VerificationMethod {
	var vms []*VerificationMethod

	if len(d.AssertionMethod) == 0 {
		for i := range d.VerificationMethod {
			vms = append(vms, &d.VerificationMethod[i])
		}

		return vms
	}

	for _, id := range d.AssertionMethod {
		if vm, err := d.VerificationMethodByID(id); err == nil {
			vms = append(vms, vm)
		}
	}

	return vms
}

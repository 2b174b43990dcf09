/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logfields

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log Fields.
const (
	FieldCommand          = "command"
	FieldCredentialID     = "credentialID"
	FieldCredentialTypes  = "credentialTypes"
	FieldDescriptorID     = "descriptorID"
	FieldDID              = "did"
	FieldEvent            = "event"
	FieldFormat           = "format"
	FieldGrantType        = "grantType"
	FieldInteractionState = "interactionState"
	FieldIssuer           = "issuer"
	FieldKeyID            = "keyID"
	FieldMatchCount       = "matchCount"
	FieldParentEvent      = "parentEvent"
	FieldPresDefID        = "presDefID"
	FieldRequirement      = "requirement"
	FieldSleep            = "sleep"
	FieldStore            = "store"
	FieldUserLogLevel     = "userLogLevel"
	FieldVerifier         = "verifier"
)

// WithCommand sets the Command field.
func WithCommand(command string) zap.Field {
	return zap.String(FieldCommand, command)
}

// WithCredentialID sets the CredentialID field.
func WithCredentialID(id string) zap.Field {
	return zap.String(FieldCredentialID, id)
}

// WithCredentialTypes sets the CredentialTypes field.
func WithCredentialTypes(types []string) zap.Field {
	return zap.Strings(FieldCredentialTypes, types)
}

// WithDescriptorID sets the DescriptorID (input descriptor ID) field.
func WithDescriptorID(id string) zap.Field {
	return zap.String(FieldDescriptorID, id)
}

// WithDID sets the DID field.
func WithDID(did string) zap.Field {
	return zap.String(FieldDID, did)
}

// WithEvent sets the Event field.
func WithEvent(event interface{}) zap.Field {
	return zap.Inline(NewObjectMarshaller(FieldEvent, event))
}

// WithFormat sets the credential Format field.
func WithFormat(format string) zap.Field {
	return zap.String(FieldFormat, format)
}

// WithGrantType sets the GrantType field.
func WithGrantType(grantType string) zap.Field {
	return zap.String(FieldGrantType, grantType)
}

// WithInteractionState sets the InteractionState field.
func WithInteractionState(state string) zap.Field {
	return zap.String(FieldInteractionState, state)
}

// WithIssuer sets the Issuer field.
func WithIssuer(issuer string) zap.Field {
	return zap.String(FieldIssuer, issuer)
}

// WithKeyID sets the KeyID field.
func WithKeyID(keyID string) zap.Field {
	return zap.String(FieldKeyID, keyID)
}

// WithMatchCount sets the MatchCount field.
func WithMatchCount(count int) zap.Field {
	return zap.Int(FieldMatchCount, count)
}

// WithParentEvent sets the ParentEvent field.
func WithParentEvent(event string) zap.Field {
	return zap.String(FieldParentEvent, event)
}

// WithPresDefID sets the PresDefID (presentation definition ID) field.
func WithPresDefID(presDefID string) zap.Field {
	return zap.String(FieldPresDefID, presDefID)
}

// WithRequirement sets the submission Requirement name field.
func WithRequirement(name string) zap.Field {
	return zap.String(FieldRequirement, name)
}

// WithSleep sets the Sleep field.
func WithSleep(sleep time.Duration) zap.Field {
	return zap.Duration(FieldSleep, sleep)
}

// WithStore sets the Store field.
func WithStore(store string) zap.Field {
	return zap.String(FieldStore, store)
}

// WithUserLogLevel sets the UserLogLevel field.
func WithUserLogLevel(userLogLevel string) zap.Field {
	return zap.String(FieldUserLogLevel, userLogLevel)
}

// WithVerifier sets the Verifier field.
func WithVerifier(verifier string) zap.Field {
	return zap.String(FieldVerifier, verifier)
}

// ObjectMarshaller uses reflection to marshal an object's fields.
type ObjectMarshaller struct {
	key string
	obj interface{}
}

// NewObjectMarshaller returns a new ObjectMarshaller.
func NewObjectMarshaller(key string, obj interface{}) *ObjectMarshaller {
	return &ObjectMarshaller{key: key, obj: obj}
}

// MarshalLogObject marshals the object's fields.
func (m *ObjectMarshaller) MarshalLogObject(e zapcore.ObjectEncoder) error {
	return e.AddReflected(m.key, m.obj)
}

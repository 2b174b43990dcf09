/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walleterror

type Component string

const (
	IssuerInitiatedInteractionComponent Component = "openid4ci.issuer-initiated-interaction"
	WalletInitiatedInteractionComponent Component = "openid4ci.wallet-initiated-interaction"
	PresentationInteractionComponent    Component = "openid4vp.interaction"
	MatcherComponent                    Component = "presexch.matcher"
	CredentialParserComponent           Component = "credential.parser"
	DIDResolverComponent                Component = "did.resolver"
	LocalKMSComponent                   Component = "localkms"
	RedisStoreComponent                 Component = "store.redis"
	MongoDBStoreComponent               Component = "store.mongodb"
)

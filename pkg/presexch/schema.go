/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

// definitionSchema validates presentation definitions. Filters are JSON Schema documents themselves and are
// only checked to be objects here; they are compiled when the definition is evaluated.
const definitionSchema = `
{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "definitions": {
        "schema": {
            "type": "object",
            "properties": {
                "uri": { "type": "string" },
                "required": { "type": "boolean" }
            },
            "required": ["uri"]
        },
        "format": {
            "type": "object",
            "additionalProperties": { "type": "object" }
        },
        "submission_requirement": {
            "type": "object",
            "properties": {
                "name": { "type": "string" },
                "purpose": { "type": "string" },
                "rule": { "type": "string", "enum": ["all", "pick"] },
                "count": { "type": "integer", "minimum": 1 },
                "min": { "type": "integer", "minimum": 0 },
                "max": { "type": "integer", "minimum": 0 },
                "from": { "type": "string" },
                "from_nested": {
                    "type": "array",
                    "minItems": 1,
                    "items": { "$ref": "#/definitions/submission_requirement" }
                }
            },
            "required": ["rule"]
        },
        "field": {
            "type": "object",
            "properties": {
                "id": { "type": "string" },
                "path": {
                    "type": "array",
                    "minItems": 1,
                    "items": { "type": "string" }
                },
                "purpose": { "type": "string" },
                "name": { "type": "string" },
                "optional": { "type": "boolean" },
                "intent_to_retain": { "type": "boolean" },
                "filter": { "type": "object" },
                "predicate": { "type": "string", "enum": ["required", "preferred"] }
            },
            "required": ["path"]
        },
        "input_descriptor": {
            "type": "object",
            "properties": {
                "id": { "type": "string", "minLength": 1 },
                "name": { "type": "string" },
                "purpose": { "type": "string" },
                "format": { "$ref": "#/definitions/format" },
                "group": {
                    "type": "array",
                    "items": { "type": "string" }
                },
                "schema": {
                    "type": "array",
                    "items": { "$ref": "#/definitions/schema" }
                },
                "constraints": {
                    "type": "object",
                    "properties": {
                        "limit_disclosure": { "type": ["string", "boolean"] },
                        "fields": {
                            "type": "array",
                            "items": { "$ref": "#/definitions/field" }
                        }
                    }
                }
            },
            "required": ["id"]
        }
    },
    "type": "object",
    "properties": {
        "id": { "type": "string", "minLength": 1 },
        "name": { "type": "string" },
        "purpose": { "type": "string" },
        "locale": { "type": "string" },
        "format": { "$ref": "#/definitions/format" },
        "submission_requirements": {
            "type": "array",
            "items": { "$ref": "#/definitions/submission_requirement" }
        },
        "input_descriptors": {
            "type": "array",
            "items": { "$ref": "#/definitions/input_descriptor" }
        }
    },
    "required": ["id", "input_descriptors"]
}`

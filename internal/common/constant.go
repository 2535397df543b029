// Package common contains shared constants and sentinel errors used across
// wellkeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// MedicalReportField is the multipart field name of the record attachment.
const MedicalReportField = "medicalReport"

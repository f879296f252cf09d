package common

// AccessTokenHeaderName is the metadata key used to carry the session token
// on inbound requests.
const AccessTokenHeaderName = "access_token"

// DefaultRole is the role reported for users whose role column is unset.
const DefaultRole = "_default"

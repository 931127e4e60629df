package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound admin requests.
const AccessTokenHeaderName = "access_token"

// RoleAdmin marks users allowed to trigger notification dispatch.
const RoleAdmin = "admin"

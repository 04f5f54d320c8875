package middleware

// SetPrincipal stands in for Authenticate in rate limit tests.
var SetPrincipal = setPrincipal

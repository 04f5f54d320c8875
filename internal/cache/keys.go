package cache

import "fmt"

// RateLimitKey is the counter of one authenticated principal, e.g.
// "app:mk_1a2b3" or "merchant:7".
func RateLimitKey(principal string) string {
	return fmt.Sprintf("ratelimit:%s", principal)
}

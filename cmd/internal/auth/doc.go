// Package auth owns the single-admin authentication lifecycle: the stored
// credential, the bearer-token session collection, and the login attempt log.
//
// The document store is the sole source of truth. Sessions are never cached
// across requests: every validation re-reads the sessions document, and
// expired tokens are evicted lazily at the moment they are presented. A token
// moves Issued -> Valid -> {Expired | Revoked}; both terminal states mean the
// token is absent from the collection, and there is no renewal path.
package auth

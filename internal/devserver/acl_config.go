package devserver

import "strings"

// authenticationAllowlist holds "METHOD path" entries reachable without a
// token. A trailing * matches any suffix.
var authenticationAllowlist = map[string]bool{
	"POST /api/auth/login":    true,
	"POST /api/auth/register": true,
	"GET /api/books":          true,
	"GET /api/books/*":        true,
	"OPTIONS /api/*":          true,
}

// isUnauthorizeAllowed returns whether the method is exempted from authentication.
// Support the wildcard character *.
func isUnauthorizeAllowed(fullMethodName string) bool {
	return matchACL(authenticationAllowlist, fullMethodName)
}

var allowedPathOnlyForAdmin = map[string]bool{
	"POST /api/books":     true,
	"DELETE /api/books/*": true,
}

// isOnlyForAdminAllowedPath returns true if the method is allowed to be called only by admin.
func isOnlyForAdminAllowedPath(methodName string) bool {
	return matchACL(allowedPathOnlyForAdmin, methodName)
}

func matchACL(acl map[string]bool, name string) bool {
	for k := range acl {
		if strings.HasSuffix(k, "*") {
			if strings.HasPrefix(name, strings.TrimSuffix(k, "*")) {
				return true
			}
		}
	}

	return acl[name]
}

package auth

import "context"

/* Context key types for type-safe context values */
type contextKey string

const (
	subjectKey contextKey = "subject"
	claimsKey  contextKey = "claims"
	methodKey  contextKey = "auth_method"
)

// Authentication methods recorded in the request context
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
)

/* SetSubject sets the authenticated subject in context */
func SetSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

/* GetSubjectFromContext gets the authenticated subject from context */
func GetSubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

/* SetClaims sets claims in context */
func SetClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

/* GetClaimsFromContext gets the claims from context */
func GetClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

func setMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodKey, method)
}

/* GetMethodFromContext reports how the request was authenticated */
func GetMethodFromContext(ctx context.Context) string {
	method, _ := ctx.Value(methodKey).(string)
	return method
}

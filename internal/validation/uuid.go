package validation

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

/* ParseUUID parses s as a UUID, reporting failures against fieldName */
func ParseUUID(s, fieldName string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, NewValidationError(fieldName, "is required")
	}
	id, err := uuid.Parse(strings.ToLower(s))
	if err != nil {
		return uuid.Nil, NewValidationError(fieldName, "must be a valid UUID")
	}
	return id, nil
}

/* RequestParamAsUUID reads the named path variable as a UUID */
func RequestParamAsUUID(r *http.Request, name string) (uuid.UUID, error) {
	return ParseUUID(mux.Vars(r)[name], name)
}

package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/uniops/academic-records-api/pkg/errors"
)

// asOfFromQuery parses the optional asOf query parameter (RFC 3339 or
// plain date). Nil means "now".
func asOfFromQuery(c *gin.Context) (*time.Time, error) {
	raw := c.Query("asOf")
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid asOf value %q", raw))
}

// requiredQuery fetches a query parameter, failing with a validation
// error naming the missing key.
func requiredQuery(c *gin.Context, key string) (string, error) {
	value := c.Query(key)
	if value == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s query parameter required", key))
	}
	return value, nil
}

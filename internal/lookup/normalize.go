package lookup

import (
	"strings"

	"weatherlookup/internal/types"
)

// NormalizeQuery trims raw and rejects empty input. The trimmed text is
// otherwise passed through unmodified; query-string encoding is left to the
// transport.
func NormalizeQuery(raw string) (types.LocationQuery, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", types.NewAppError(types.ErrCodeValidationEmptyQuery, "city name must not be empty", nil)
	}
	return types.LocationQuery(trimmed), nil
}

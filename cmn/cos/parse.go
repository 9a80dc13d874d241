package cos

import (
	"strconv"
	"strings"
)

// ParseBool accepts the same spellings the teacher's config loader does
// ("true"/"false"/"yes"/"no"/"1"/"0" case-insensitively) so config files and
// environment overrides written by hand do not have to match strconv's
// stricter grammar exactly.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0", "":
		return false, nil
	default:
		return strconv.ParseBool(s)
	}
}

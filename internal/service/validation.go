package service

import "strings"

func normalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// validUsername accepts 3 to 24 ASCII letters, digits or underscores.
func validUsername(s string) bool {
	if len(s) < 3 || len(s) > 24 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

func requireFields(values map[string]string) map[string]string {
	var missing map[string]string
	for k, v := range values {
		if v == "" {
			if missing == nil {
				missing = make(map[string]string)
			}
			missing[k] = "required"
		}
	}
	return missing
}

package analyzer

import "encoding/json"

// RequiredKeys must be present at the top level of a usable analysis
var RequiredKeys = []string{"pelapor", "terlapor", "kejadian", "jenis_kasus", "pasal_utama", "summary"}

// ValidateRequiredKeys reports whether every required key is present. It is
// advisory and never fails: malformed input simply reports false.
func ValidateRequiredKeys(raw []byte) bool {
	return len(MissingRequiredKeys(raw)) == 0
}

// MissingRequiredKeys lists the required keys absent from raw, in declaration order.
// A non-object payload is missing all of them.
func MissingRequiredKeys(raw []byte) []string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		return append([]string(nil), RequiredKeys...)
	}

	var missing []string
	for _, key := range RequiredKeys {
		if _, ok := doc[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

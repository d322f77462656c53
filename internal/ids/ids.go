package ids

import "github.com/segmentio/ksuid"

// New returns a new sortable identifier used for jobs, assets and storage keys.
func New() string {
	return ksuid.New().String()
}

// IsValid reports whether s parses as an identifier produced by New.
func IsValid(s string) bool {
	_, err := ksuid.Parse(s)
	return err == nil
}

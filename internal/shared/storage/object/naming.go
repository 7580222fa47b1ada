package object

import (
	"fmt"
	"time"
)

// StoredNameResolution is the granularity of the stored-name prefix. Two uploads
// of the same original name inside one step would produce the same name; stores
// resolve that by advancing the prefix one step at a time (see NextStoredName).
const StoredNameResolution = time.Millisecond

// MaxNameAttempts bounds how many prefixes a store tries before giving up.
const MaxNameAttempts = 64

// GenerateStoredName returns "<unixMillis>_<originalName>".
func GenerateStoredName(originalName string, at time.Time) string {
	return fmt.Sprintf("%d_%s", at.UnixMilli(), originalName)
}

// NextStoredName returns the candidate name for the given attempt, starting at 0.
func NextStoredName(originalName string, at time.Time, attempt int) string {
	return GenerateStoredName(originalName, at.Add(time.Duration(attempt)*StoredNameResolution))
}

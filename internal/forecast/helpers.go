package forecast

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// bumpMinor increments the minor component of a "major.minor" version.
func bumpMinor(version string) string {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return version + ".1"
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return version + ".1"
	}
	return fmt.Sprintf("%s.%d", parts[0], minor+1)
}

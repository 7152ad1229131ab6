package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenID returns a new opaque identifier.
func GenID() string {
	return uuid.NewString()
}

// GenProjectID returns a new project identifier with a recognizable prefix
// so store keys and logs stay easy to read.
func GenProjectID() string {
	return "prj_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

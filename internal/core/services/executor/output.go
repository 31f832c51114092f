package executor

import (
	"os"
	"strings"
)

const osCreateFlags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC

// decode turns raw process output into text. Invalid UTF-8 and NUL bytes
// are replaced since neither can be stored in a text column.
func decode(b []byte) *string {
	s := strings.ToValidUTF8(string(b), "\uFFFD")
	s = strings.ReplaceAll(s, "\x00", "\uFFFD")
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

package ioutil

import (
	"fmt"
	"io"
	"strings"
)

// ReadSnippet reads up to limit bytes from r for inclusion in an error
// message. Whitespace runs are collapsed so the result fits on one log line.
// A read failure is described instead of silenced.
func ReadSnippet(r io.Reader, limit int64) string {
	body, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return fmt.Sprintf("<unreadable: %v>", err)
	}
	return strings.Join(strings.Fields(string(body)), " ")
}

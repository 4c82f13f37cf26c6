package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// JoinPath appends path elements to base, collapsing duplicate slashes at
// the seams. A trailing slash on the last element is preserved.
func JoinPath(base string, elems ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	u.Path = path.Join(append([]string{"/", u.Path}, elems...)...)
	if len(elems) > 0 && strings.HasSuffix(elems[len(elems)-1], "/") && u.Path != "/" {
		u.Path += "/"
	}
	if u.Path == "/" && len(elems) == 0 && !strings.HasSuffix(base, "/") {
		u.Path = ""
	}

	return u.String(), nil
}

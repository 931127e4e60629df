// Package pathx canonicalises slash-separated logical paths. It never
// touches the filesystem: the results are used as folder keys and for
// matching users' home directories against upload destinations.
package pathx

import "strings"

// Normalize joins a home directory and a destination relative to it and
// resolves "." and ".." segments left to right. A ".." never climbs above
// the root. The result always starts with "/" and has no trailing slash
// (except for the root itself). The home directory is resolved too, also
// when the destination is empty or ".".
func Normalize(homeDir, destination string) string {
	home := "/" + strings.Trim(homeDir, "/")
	dest := strings.Trim(destination, "/")

	if dest == "" || dest == "." {
		return resolve(home)
	}

	if home == "/" {
		return resolve("/" + dest)
	}
	return resolve(home + "/" + dest)
}

// Clean normalises a single absolute path, e.g. a user's home directory.
func Clean(p string) string {
	return Normalize(p, "")
}

func resolve(p string) string {
	parts := strings.Split(p, "/")
	stack := make([]string, 0, len(parts))

	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}

	return "/" + strings.Join(stack, "/")
}

// IsWithin reports whether p equals scope or lies below it. Both values
// must already be normalised. The root scope contains every path.
func IsWithin(p, scope string) bool {
	if scope == "/" || p == scope {
		return true
	}
	return strings.HasPrefix(p, scope+"/")
}

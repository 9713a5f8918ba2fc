package trigger

import "strings"

// FindMatch resolves content to a single record. An exact hit always wins over
// a contains hit; among contains records the first one in list order wins.
// Content is compared as-is.
func FindMatch(c *Compiled, content string) (Record, bool) {
	if c == nil {
		return Record{}, false
	}
	if r, ok := c.Exact[content]; ok {
		return r, true
	}
	for _, r := range c.Partial {
		if strings.Contains(content, r.Trigger) {
			return r, true
		}
	}
	return Record{}, false
}

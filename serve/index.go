package serve

import (
	"fmt"
	"strings"
)

// IndexHTML is an index page split around the root element. Rendered
// application output is written between Before and After. Before ends
// just after the root element's opening tag.
type IndexHTML struct {
	Before string
	After  string
}

// SplitIndex splits an index page around the element with the given
// id. The element must be present with a double-quoted id attribute.
func SplitIndex(contents, rootID string) (IndexHTML, error) {
	marker := fmt.Sprintf("id=%q", rootID)
	before, rest, found := strings.Cut(contents, marker)
	if !found {
		return IndexHTML{}, fmt.Errorf("serve: index page has no element with %s", marker)
	}
	inTag, after, found := strings.Cut(rest, ">")
	if !found {
		return IndexHTML{}, fmt.Errorf("serve: root element with %s is never closed", marker)
	}
	return IndexHTML{
		Before: before + marker + inTag + ">",
		After:  after,
	}, nil
}

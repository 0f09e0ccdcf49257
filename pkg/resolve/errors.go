package resolve

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRegionUnknown reports that neither the first node's provider ID nor its
// topology labels yielded a region.
var ErrRegionUnknown = errors.New("unable to determine cloud region from node data")

// IdentityNotFoundError reports that every candidate cluster name was probed
// without a match. It carries the full ordered candidate list for display.
type IdentityNotFoundError struct {
	Candidates []string
}

func (e *IdentityNotFoundError) Error() string {
	return fmt.Sprintf("no managed cluster record found; tried %s",
		strings.Join(e.Candidates, ", "))
}

package download

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/modpkg/modpkg/internal/model"
)

// Kind classifies why a job failed.
type Kind int

const (
	// KindTransport covers failed requests, bad statuses and broken streams.
	KindTransport Kind = iota
	// KindFilesystem covers creating, writing or closing the target file.
	KindFilesystem
	// KindCancelled marks jobs stopped by context cancellation.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindFilesystem:
		return "filesystem"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// JobError is the failure of one artifact download.
type JobError struct {
	// Index is the position of Mod in the requested records.
	Index int
	// Total is the number of requested records.
	Total int
	Mod   *model.ModRecord
	Kind  Kind
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("[%d/%d] %s: %s: %v", e.Index+1, e.Total, e.Mod.Label(), e.Kind, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// formatJobErrors renders the aggregate as a summary line followed by one
// line per failed job.
func formatJobErrors(errs []error) string {
	var b strings.Builder

	total := 0
	if len(errs) > 0 {
		if je, ok := errs[0].(*JobError); ok {
			total = je.Total
		}
	}
	if total > 0 {
		fmt.Fprintf(&b, "%d of %d downloads failed:", len(errs), total)
	} else {
		fmt.Fprintf(&b, "%d downloads failed:", len(errs))
	}
	for _, err := range errs {
		b.WriteString("\n\t* ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func aggregate(failed []*JobError) error {
	if len(failed) == 0 {
		return nil
	}
	merr := &multierror.Error{ErrorFormat: formatJobErrors}
	for _, je := range failed {
		merr = multierror.Append(merr, je)
	}
	return merr
}

// Package hostprint prints the HTML fallback document through the host
// instead of the bridge. The default surface renders the page in headless
// Chrome, saves it as a PDF and hands it to the host print command.
package hostprint

import (
	"context"
	"errors"
	"fmt"
)

// ErrSurfaceUnavailable means the host cannot print the fallback document at all
var ErrSurfaceUnavailable = errors.New("host print surface unavailable")

// Job is one fallback document to print
type Job struct {
	Name     string
	Document []byte
	Copies   int
}

// Surface prints fallback documents on the host
type Surface interface {
	Print(ctx context.Context, job Job) error
}

// Disabled is a Surface that never prints
type Disabled struct {
	Reason string
}

func (d Disabled) Print(context.Context, Job) error {
	if d.Reason == "" {
		return ErrSurfaceUnavailable
	}
	return fmt.Errorf("%w: %s", ErrSurfaceUnavailable, d.Reason)
}

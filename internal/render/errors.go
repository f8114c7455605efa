package render

import (
	"errors"
	"fmt"
)

// ErrRender is matched by every error returned from a render.
var ErrRender = errors.New("render failed")

// RenderError reports a failed render of one campaign.
type RenderError struct {
	Campaign string
	Kind     Kind
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s of %s: %v", e.Kind, e.Campaign, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRender) hold for every RenderError.
func (e *RenderError) Is(target error) bool { return target == ErrRender }

// StageError names the pipeline stage that failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func renderErr(campaign string, kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &RenderError{Campaign: campaign, Kind: kind, Err: err}
}

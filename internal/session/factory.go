package session

import (
	"net/http"

	"github.com/conneroisu/formify/internal/config"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/submit"
	"github.com/conneroisu/formify/internal/widget"
)

// NewFactory returns a Factory building widgets from cfg. The field set and
// submission URL are resolved once so a bad config fails here instead of
// on the first visitor.
func NewFactory(cfg *config.Config, client *http.Client, logger logging.Logger) (Factory, error) {
	set, err := cfg.FieldSet()
	if err != nil {
		return nil, err
	}
	url, err := cfg.SubmissionURL()
	if err != nil {
		return nil, err
	}
	submitter := submit.NewHTTPSubmitter(url, client)
	title := cfg.Widget.Title
	delay := cfg.Widget.AlertDelay

	return func() (*widget.Widget, error) {
		return widget.New(widget.Options{
			Fields:     set,
			Title:      title,
			AlertDelay: delay,
			Submitter:  submitter,
			Logger:     logger,
		})
	}, nil
}

package archive

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// ErrNoStore is returned by history lookups on an Archive without a Store.
var ErrNoStore = errors.New("archive has no history store")

// SaveRequest describes a generated text to be saved.
type SaveRequest struct {
	Name      string
	Text      string
	Order     int
	MinLength int
	Source    string
}

// Archive saves generated texts as files in a directory and, when a Store is
// configured, records every save in its history.
type Archive struct {
	dir    string
	store  *Store
	logger *slog.Logger
}

// New creates an Archive writing into dir. store may be nil, in which case
// only files are written.
func New(dir string, store *Store) *Archive {
	return &Archive{
		dir:    dir,
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the Archive. By default, all logs are discarded.
func (a *Archive) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Dir returns the directory texts are written to.
func (a *Archive) Dir() string {
	return a.dir
}

// HasHistory reports whether saves are recorded in a Store.
func (a *Archive) HasHistory() bool {
	return a.store != nil
}

// Save writes req.Text to a file named after req.Name and records it in the
// history if there is one. The file is written before the history entry, so
// a failed insert leaves the file in place.
func (a *Archive) Save(ctx context.Context, req SaveRequest) (*Entry, error) {
	path, err := WriteText(a.dir, req.Name, req.Text)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = DefaultName
	}
	entry := &Entry{
		Name:      name,
		Path:      path,
		Text:      req.Text,
		Order:     req.Order,
		MinLength: req.MinLength,
		Source:    req.Source,
	}

	if a.store != nil {
		if err = a.store.Insert(ctx, entry); err != nil {
			a.logger.ErrorContext(ctx, "Failed to record saved text", slog.String("path", path), slog.Any("error", err))
			return nil, err
		}
	}

	a.logger.InfoContext(ctx, "Text saved", slog.String("path", path), slog.String("text_id", entry.ID))
	return entry, nil
}

// Get returns a saved text from the history by ID.
func (a *Archive) Get(ctx context.Context, id string) (*Entry, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	return a.store.Get(ctx, id)
}

// List returns up to limit saved texts from the history, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]Entry, error) {
	if a.store == nil {
		return nil, ErrNoStore
	}
	return a.store.List(ctx, limit)
}

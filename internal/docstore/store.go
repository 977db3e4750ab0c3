package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidPath  = errors.New("invalid document path")
	ErrInvalidQuery = errors.New("invalid query")
)

// ServerTimestamp is replaced with the store's write time when it appears as
// a field value in Create, Set or Update.
var ServerTimestamp = serverTimestamp{}

type serverTimestamp struct{}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type Filter struct {
	Field string
	Value any
}

type Query struct {
	OrderBy   string
	Direction Direction
	Where     *Filter
	Limit     int
}

func (query Query) Validate() error {
	if query.OrderBy != "" && !fieldNamePattern.MatchString(query.OrderBy) {
		return fmt.Errorf("%w: order field %q", ErrInvalidQuery, query.OrderBy)
	}
	switch query.Direction {
	case "", Asc, Desc:
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidQuery, query.Direction)
	}
	if query.Where != nil && !fieldNamePattern.MatchString(query.Where.Field) {
		return fmt.Errorf("%w: filter field %q", ErrInvalidQuery, query.Where.Field)
	}
	if query.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

func (query Query) key() string {
	direction := query.Direction
	if direction == "" {
		direction = Asc
	}
	where := ""
	if query.Where != nil {
		where = fmt.Sprintf("%s=%v", query.Where.Field, query.Where.Value)
	}
	return fmt.Sprintf("%s:%s|%s|%d", query.OrderBy, direction, where, query.Limit)
}

type Document struct {
	ID         string
	Collection string
	Fields     map[string]any
	CreateTime time.Time
	UpdateTime time.Time
}

func (doc Document) Path() string {
	return doc.Collection + "/" + doc.ID
}

// Snapshot is one complete delivery of a subscription's result set.
// Sequence counts deliveries within one subscription.
type Snapshot struct {
	Sequence uint64
	Docs     []Document
	Err      error
}

type Store interface {
	Create(ctx context.Context, collection string, fields map[string]any) (Document, error)
	Set(ctx context.Context, documentPath string, fields map[string]any) (Document, error)
	Get(ctx context.Context, documentPath string) (Document, error)
	Update(ctx context.Context, documentPath string, fields map[string]any) (Document, error)
	Delete(ctx context.Context, documentPath string) error
	List(ctx context.Context, collection string, query Query) ([]Document, error)
	Subscribe(ctx context.Context, collection string, query Query) (*Subscription, error)
}

// ValidateCollectionPath accepts slash separated paths with an odd number of
// non-empty segments, e.g. "users" or "users/{uid}/moods".
func ValidateCollectionPath(path string) error {
	segments, err := pathSegments(path)
	if err != nil {
		return err
	}
	if len(segments)%2 == 0 {
		return fmt.Errorf("%w: %q is a document path", ErrInvalidPath, path)
	}
	return nil
}

// SplitDocumentPath splits "users/{uid}/moods/{id}" into its collection and id.
func SplitDocumentPath(path string) (string, string, error) {
	segments, err := pathSegments(path)
	if err != nil {
		return "", "", err
	}
	if len(segments)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is a collection path", ErrInvalidPath, path)
	}
	last := len(segments) - 1
	return strings.Join(segments[:last], "/"), segments[last], nil
}

func pathSegments(path string) ([]string, error) {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segments := strings.Split(trimmed, "/")
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}

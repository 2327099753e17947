package fault

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"

	"gorm.io/gorm"
)

// Alias attaches a category to a sentinel error matched with errors.Is.
type Alias struct {
	Target   error
	Category Category
}

// sentinels lists the third-party errors that configuration may alias by name.
var sentinels = map[string]error{
	"context.Canceled":           context.Canceled,
	"context.DeadlineExceeded":   context.DeadlineExceeded,
	"gorm.ErrRecordNotFound":     gorm.ErrRecordNotFound,
	"gorm.ErrDuplicatedKey":      gorm.ErrDuplicatedKey,
	"gorm.ErrForeignKeyViolated": gorm.ErrForeignKeyViolated,
	"http.ErrMissingFile":        http.ErrMissingFile,
	"io.ErrUnexpectedEOF":        io.ErrUnexpectedEOF,
	"io.EOF":                     io.EOF,
}

// Sentinel looks up a named sentinel error.
func Sentinel(name string) (error, bool) {
	err, ok := sentinels[name]
	return err, ok
}

// SentinelNames returns the names accepted by Sentinel, sorted.
func SentinelNames() []string {
	out := make([]string, 0, len(sentinels))
	for k := range sentinels {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultAliases returns the aliases installed when configuration does not
// override them.
func DefaultAliases() []Alias {
	return []Alias{
		{Target: gorm.ErrRecordNotFound, Category: CategoryNotFound},
		{Target: gorm.ErrDuplicatedKey, Category: CategoryDuplicate},
		{Target: gorm.ErrForeignKeyViolated, Category: CategoryConflict},
		{Target: context.DeadlineExceeded, Category: CategoryUnavailable},
		{Target: context.Canceled, Category: CategoryClient},
		{Target: io.ErrUnexpectedEOF, Category: CategoryBadRequest},
		{Target: io.EOF, Category: CategoryBadRequest},
	}
}

// Classify returns the category of err: a categorized error in the chain
// wins, otherwise the first alias whose target matches. ok is false when
// neither applies.
func Classify(err error, aliases []Alias) (Category, bool) {
	if err == nil {
		return "", false
	}
	if c, ok := CategoryOf(err); ok {
		return c, true
	}
	for _, a := range aliases {
		if a.Target != nil && errors.Is(err, a.Target) {
			return a.Category, true
		}
	}
	return "", false
}

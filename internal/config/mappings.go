package config

import (
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tbourn/go-graceful-response/internal/domain"
	"github.com/tbourn/go-graceful-response/internal/fault"
)

// MappingSet is the error translation configuration handed to the pipeline
// at startup.
type MappingSet struct {
	Parents  map[fault.Category]fault.Category
	Mappings []domain.ErrorMapping
	Fallback *domain.ErrorMapping // nil: use ResponseConfig's fallback
	Aliases  []fault.Alias
}

type mappingFile struct {
	Categories map[string]string `koanf:"categories"` // child: parent
	Mappings   []mappingEntry    `koanf:"mappings"`
	Fallback   *mappingEntry     `koanf:"fallback"`
	Aliases    []aliasEntry      `koanf:"aliases"`
}

type mappingEntry struct {
	Category        string            `koanf:"category"`
	Code            string            `koanf:"code"`
	Message         string            `koanf:"message"`
	Status          int               `koanf:"status"`
	UseErrorMessage bool              `koanf:"use_error_message"`
	Translations    map[string]string `koanf:"translations"`
}

type aliasEntry struct {
	Error    string `koanf:"error"` // sentinel name, e.g. gorm.ErrRecordNotFound
	Category string `koanf:"category"`
}

func (e mappingEntry) toDomain() domain.ErrorMapping {
	return domain.ErrorMapping{
		Category:        fault.Category(strings.TrimSpace(e.Category)),
		Code:            strings.TrimSpace(e.Code),
		Message:         e.Message,
		Status:          e.Status,
		UseErrorMessage: e.UseErrorMessage,
		Translations:    e.Translations,
	}
}

// LoadMappings reads a yaml mapping file. An empty path yields
// DefaultMappingSet. File categories are merged over the built-in hierarchy;
// when the file declares mappings they replace the built-in ones; file
// aliases are consulted before the built-in aliases.
func LoadMappings(path string) (MappingSet, error) {
	set := DefaultMappingSet()
	if strings.TrimSpace(path) == "" {
		return set, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return MappingSet{}, fmt.Errorf("load mappings %s: %w", path, err)
	}
	var mf mappingFile
	if err := k.Unmarshal("", &mf); err != nil {
		return MappingSet{}, fmt.Errorf("decode mappings %s: %w", path, err)
	}

	for child, parent := range mf.Categories {
		set.Parents[fault.Category(strings.TrimSpace(child))] = fault.Category(strings.TrimSpace(parent))
	}

	if len(mf.Mappings) > 0 {
		set.Mappings = make([]domain.ErrorMapping, 0, len(mf.Mappings))
		for i, e := range mf.Mappings {
			m := e.toDomain()
			if m.Category == "" || m.Code == "" {
				return MappingSet{}, fmt.Errorf("mappings[%d]: category and code are required", i)
			}
			set.Mappings = append(set.Mappings, m)
		}
	}

	if mf.Fallback != nil {
		fb := mf.Fallback.toDomain()
		if fb.Code == "" {
			return MappingSet{}, fmt.Errorf("fallback: code is required")
		}
		set.Fallback = &fb
	}

	if len(mf.Aliases) > 0 {
		aliases := make([]fault.Alias, 0, len(mf.Aliases)+len(set.Aliases))
		for i, a := range mf.Aliases {
			target, ok := fault.Sentinel(strings.TrimSpace(a.Error))
			if !ok {
				return MappingSet{}, fmt.Errorf("aliases[%d]: unknown error %q (known: %s)",
					i, a.Error, strings.Join(fault.SentinelNames(), ", "))
			}
			c := fault.Category(strings.TrimSpace(a.Category))
			if c == "" {
				return MappingSet{}, fmt.Errorf("aliases[%d]: category is required", i)
			}
			aliases = append(aliases, fault.Alias{Target: target, Category: c})
		}
		set.Aliases = append(aliases, set.Aliases...)
	}

	return set, nil
}

// DefaultMappingSet returns the built-in hierarchy, mappings and aliases.
func DefaultMappingSet() MappingSet {
	return MappingSet{
		Parents: maps.Clone(fault.DefaultParents()),
		Mappings: []domain.ErrorMapping{
			{Category: fault.CategoryClient, Code: "BAD_REQUEST", Message: "Bad request", Status: http.StatusBadRequest},
			{Category: fault.CategoryBadRequest, Code: "BAD_REQUEST", Message: "Malformed request", Status: http.StatusBadRequest},
			{Category: fault.CategoryValidation, Code: "VALIDATION_FAILED", Message: "Validation failed", Status: http.StatusUnprocessableEntity, UseErrorMessage: true},
			{
				Category: fault.CategoryNotFound, Code: "NOT_FOUND", Message: "Resource missing", Status: http.StatusNotFound,
				Translations: map[string]string{"de": "Ressource nicht gefunden", "fr": "Ressource introuvable"},
			},
			{Category: fault.CategoryConflict, Code: "CONFLICT", Message: "Conflict", Status: http.StatusConflict, UseErrorMessage: true},
			{Category: fault.CategoryDuplicate, Code: "DUPLICATE", Message: "Resource already exists", Status: http.StatusConflict},
			{Category: fault.CategoryUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required", Status: http.StatusUnauthorized},
			{Category: fault.CategoryForbidden, Code: "FORBIDDEN", Message: "Forbidden", Status: http.StatusForbidden},
			{Category: fault.CategoryRateLimited, Code: "RATE_LIMITED", Message: "Too many requests, retry in {{.retry_after}}s", Status: http.StatusTooManyRequests},
			{Category: fault.CategoryMethod, Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed", Status: http.StatusMethodNotAllowed},
			{Category: fault.CategoryUnavailable, Code: "UNAVAILABLE", Message: "Service temporarily unavailable", Status: http.StatusServiceUnavailable},
			{Category: fault.CategoryServer, Code: "INTERNAL", Message: "Unexpected error", Status: http.StatusInternalServerError},
		},
		Aliases: fault.DefaultAliases(),
	}
}

// FallbackFrom returns the set's fallback or, when the file declared none,
// the one described by r.
func (s MappingSet) FallbackFrom(r ResponseConfig) domain.ErrorMapping {
	if s.Fallback != nil {
		return *s.Fallback
	}
	return domain.ErrorMapping{
		Code:            r.FallbackCode,
		Message:         r.FallbackMessage,
		UseErrorMessage: r.FallbackUseErrorMessage,
	}
}

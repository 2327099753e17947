package httpapi

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-graceful-response/internal/config"
	"github.com/tbourn/go-graceful-response/internal/fault"
	"github.com/tbourn/go-graceful-response/internal/observability"
	"github.com/tbourn/go-graceful-response/internal/pipeline"
	"github.com/tbourn/go-graceful-response/internal/services"
)

// BuildPipeline assembles the error pipeline from configuration: the
// category graph and mapping table, predicate seeds, logging and tracing
// hooks and, when enabled and db is non-nil, the incident recorder.
//
// stop flushes the incident writer; call it after the HTTP server has
// drained. It is never nil.
func BuildPipeline(rc config.ResponseConfig, set config.MappingSet, db *gorm.DB) (ctl *pipeline.Controller, stop func(), err error) {
	stop = func() {}
	g, err := pipeline.NewGraph(set.Parents)
	if err != nil {
		return nil, stop, fmt.Errorf("category graph: %w", err)
	}
	fallback := set.FallbackFrom(rc)
	tbl, err := pipeline.NewTable(g, set.Mappings, &fallback, set.Aliases)
	if err != nil {
		return nil, stop, fmt.Errorf("mapping table: %w", err)
	}
	proc := pipeline.NewProcessor(tbl)

	var preds []pipeline.Predicate
	for _, m := range rc.IgnoreErrorMessages {
		if m = strings.TrimSpace(m); m != "" {
			preds = append(preds, pipeline.ExcludeMessageContaining(m))
		}
	}
	if len(rc.IgnoreErrorCategories) > 0 {
		cats := make([]fault.Category, 0, len(rc.IgnoreErrorCategories))
		for _, c := range rc.IgnoreErrorCategories {
			cats = append(cats, fault.Category(strings.TrimSpace(c)))
		}
		preds = append(preds, pipeline.ExcludeCategories(cats...))
	}

	isServer := func(c fault.Category) bool { return g.IsA(c, fault.CategoryServer) }
	after := []pipeline.AfterFunc{observability.TraceHook(proc.Category)}
	if rc.RecordIncidents && db != nil {
		inc := services.NewIncidentService(db, incidentRepoShim{})
		inc.Classify = proc.Category
		if !rc.RecordClientIncidents {
			inc.Skip = func(c fault.Category) bool { return g.IsA(c, fault.CategoryClient) }
		}
		after = append(after, inc.Recorder())
		stop = inc.Async(rc.IncidentQueue)
	}

	ctl, err = pipeline.New(proc, pipeline.NewProjection(rc.DefaultErrorStatus),
		pipeline.WithPredicates(preds...),
		pipeline.WithBefore(observability.LogHook(rc.PrintErrors, proc.Category, isServer)),
		pipeline.WithAfter(pipeline.After(after...)),
	)
	if err != nil {
		stop()
		return nil, func() {}, err
	}
	return ctl, stop, nil
}

package observability

import (
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// InstrumentGORM registers the OpenTelemetry tracing plugin on db. Queries
// become child spans of the request span when the caller passes a context
// through WithContext. Bound query variables are not recorded.
func InstrumentGORM(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(
		tracing.WithoutMetrics(),
		tracing.WithoutQueryVariables(),
	))
}

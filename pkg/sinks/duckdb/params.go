package duckdb

// Params holds DuckDB-specific sink configuration.
// Parsed from core.SinkConfig.Params using mapstructure.
type Params struct {
	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`

	// UseAppender streams rows through the DuckDB appender instead of INSERT
	// statements. Defaults to true.
	UseAppender *bool `mapstructure:"use_appender"`
}

func (p Params) appender() bool {
	return p.UseAppender == nil || *p.UseAppender
}

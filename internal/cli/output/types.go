package output

// RunOutput is the JSON form of a run or recover result.
type RunOutput struct {
	RunID         string          `json:"run_id"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	Error         string          `json:"error,omitempty"`
	Documents     int             `json:"documents"`
	Tables        int             `json:"tables"`
	Records       int             `json:"records"`
	Columns       []string        `json:"columns"`
	CheckpointKey string          `json:"checkpoint_key,omitempty"`
	Skipped       []SkippedOutput `json:"skipped,omitempty"`
	Outputs       []string        `json:"outputs"`
	DurationMS    int64           `json:"duration_ms"`
}

// SkippedOutput describes a table left out under the skip policy.
type SkippedOutput struct {
	Document string `json:"document"`
	Table    int    `json:"table"`
	Reason   string `json:"reason"`
}

// RunInfo is one entry of the run history.
type RunInfo struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
	Documents     int    `json:"documents"`
	Tables        int    `json:"tables"`
	SkippedTables int    `json:"skipped_tables"`
	Records       int    `json:"records"`
	CheckpointKey string `json:"checkpoint_key,omitempty"`
	Error         string `json:"error,omitempty"`
}

// CheckpointOutput is one stored checkpoint.
type CheckpointOutput struct {
	Key       string `json:"key"`
	RunID     string `json:"run_id"`
	CreatedAt string `json:"created_at"`
	Columns   int    `json:"columns"`
	Records   int    `json:"records"`
	Bytes     int64  `json:"bytes"`
}

// InspectOutput describes the tables of one document.
type InspectOutput struct {
	Path   string        `json:"path"`
	Tables []TableOutput `json:"tables"`
}

// TableOutput describes one inspected table.
type TableOutput struct {
	Index       int      `json:"index"`
	Columns     int      `json:"columns"`
	Rows        int      `json:"rows"`
	MergedCells int      `json:"merged_cells"`
	Headers     []string `json:"headers"`
	Records     int      `json:"records"`
	Unsupported string   `json:"unsupported,omitempty"`
}

package normalize

import (
	"path/filepath"

	"github.com/leapstack-labs/tablemerge/pkg/core"
)

// TagProvenance stamps every record of b with the base name of documentPath
// under core.SourceColumn and records the document on the batch.
func TagProvenance(b Batch, documentPath string) Batch {
	name := core.Text(filepath.Base(documentPath))

	tagged := make([]core.Record, len(b.Records))
	for i, r := range b.Records {
		tagged[i] = r.With(core.SourceColumn, name)
	}

	b.Document = documentPath
	b.Records = tagged
	return b
}

package importer

import (
	"os"

	"github.com/rotisserie/eris"
)

// SampleCSV is the downloadable template offered to operators: a fixed
// header plus three example rows. Static content, not derived from the
// pipeline.
const SampleCSV = `name,email,phone,source,status,company
John Smith,john@example.com,+1 555 123 4567,website,New,Acme Corp
Jane Doe,jane@example.com,+1 555 987 6543,referral,Contacted,Tech Solutions
Bob Wilson,bob@example.com,,ads,New,
`

// WriteSampleCSV writes the sample template to the given path.
func WriteSampleCSV(path string) error {
	if err := os.WriteFile(path, []byte(SampleCSV), 0o644); err != nil {
		return eris.Wrapf(err, "importer: write sample csv %s", path)
	}
	return nil
}

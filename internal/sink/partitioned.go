package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ecpslabs/featuremart/internal/feature"
)

// WritePartitioned writes the feature table under a dt=YYYY-MM-DD partition
// directory, the layout the distributed readers expect. The partition key is
// the as-of date. Returns the written file path.
func WritePartitioned(dir string, asof time.Time, rows []feature.Row) (string, error) {
	partition := filepath.Join(dir, fmt.Sprintf("dt=%s", asof.Format("2006-01-02")))
	if err := os.MkdirAll(partition, 0o755); err != nil {
		return "", fmt.Errorf("create partition dir: %w", err)
	}

	path := filepath.Join(partition, "part-00000.csv")
	if err := WriteCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

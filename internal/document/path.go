package document

import (
	"path"
	"time"
)

const fileSuffix = "-hacknews.md"

// Path derives the per-day document key inside dir.
func Path(dir string, day time.Time) string {
	return path.Join(dir, day.Format("2006-01-02")+fileSuffix)
}

package uploads

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OriginalPath builds <callerID>/<unix-millis>[-<index>].<ext>. Index 0 means
// a single upload and is omitted.
func OriginalPath(callerID string, ts time.Time, index int, ext string) string {
	name := strconv.FormatInt(ts.UnixMilli(), 10)
	if index > 0 {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	return fmt.Sprintf("%s/%s.%s", callerID, name, strings.TrimPrefix(ext, "."))
}

// ResultPath builds results/<callerID>/<unix-millis>[-<index>].<ext> for a
// rehosted result. Index 0 is omitted. The extension follows contentType and
// is jpg when it is unknown.
func ResultPath(callerID string, ts time.Time, index int, contentType string) string {
	name := strconv.FormatInt(ts.UnixMilli(), 10)
	if index > 0 {
		name = fmt.Sprintf("%s-%d", name, index)
	}
	return fmt.Sprintf("results/%s/%s.%s", callerID, name, resultExt(contentType))
}

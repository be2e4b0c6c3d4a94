package chat

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
)

var candidateFields = []string{
	project.FieldDescription,
	project.FieldMainService,
	project.FieldSubService,
	project.FieldMaterial,
}

// FormatProjectContext renders project hits as numbered candidate blocks
// separated by a blank line. Fields that are empty or N/A get no line.
func FormatProjectContext(hits []result.Result) string {
	blocks := make([]string, 0, len(hits))
	for i := range hits {
		var b strings.Builder
		fmt.Fprintf(&b, "후보 %d:", i+1)
		for _, f := range candidateFields {
			v := hits[i].Get(f)
			if !project.IsPresent(v) {
				continue
			}
			fmt.Fprintf(&b, "\n- %s: %s", f, v)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// FormatServiceContext uses the closest service definition verbatim.
func FormatServiceContext(hits []result.Result) string {
	if len(hits) == 0 {
		return ""
	}
	return hits[0].Content()
}

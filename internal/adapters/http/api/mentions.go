package api

import (
	"regexp"

	"github.com/samber/lo"
)

// mentionPattern matches <@123>, <@!123> or a bare numeric id.
var mentionPattern = regexp.MustCompile(`<@!?(\d+)>|\b(\d+)\b`)

// ParseMentions extracts user identifiers from free text in order of first
// appearance. Anything that is neither a mention nor a bare number is ignored.
func ParseMentions(text string) []string {
	var ids []string
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			ids = append(ids, m[1])
		} else {
			ids = append(ids, m[2])
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return lo.Uniq(ids)
}

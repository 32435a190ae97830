package teamctl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/okian/rankteam/internal/domain/model"
)

// ErrInvalidMembers is returned for a malformed -members list.
var ErrInvalidMembers = errors.New("invalid members")

// ParseMembers reads "id:name,id:name". The name is optional and defaults
// to the id. Later duplicates of an id are dropped.
func ParseMembers(s string) ([]model.Participant, error) {
	var out []model.Participant
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		id, name, _ := strings.Cut(item, ":")
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty id in %q", ErrInvalidMembers, item)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			name = id
		}
		out = append(out, model.Participant{ID: id, Name: name})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no members", ErrInvalidMembers)
	}
	return lo.UniqBy(out, func(p model.Participant) string { return p.ID }), nil
}

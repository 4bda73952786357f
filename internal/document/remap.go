package document

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMapping reads "old=new" pairs separated by commas.
func ParseMapping(s string) (map[int64]int64, error) {
	m := make(map[int64]int64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		from, to, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("document: mapping %q is not old=new", pair)
		}
		f, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("document: mapping %q: %w", pair, err)
		}
		t, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("document: mapping %q: %w", pair, err)
		}
		m[f] = t
	}
	return m, nil
}

// RemapActivities rewrites gating activity ids through m, as when a tree is
// copied into another course. Ids without a mapping are dropped. A step whose
// expected-completion reference is dropped falls back to no expected date.
// It returns the number of ids dropped.
func (d *Document) RemapActivities(m map[int64]int64) int {
	var dropped int
	for pi := range d.Phases {
		for ci := range d.Phases[pi].Cycles {
			steps := d.Phases[pi].Cycles[ci].Steps
			for si := range steps {
				s := &steps[si]
				var ids []int64
				for _, id := range s.GatingIDs() {
					if to, ok := m[id]; ok {
						ids = append(ids, to)
					} else {
						dropped++
					}
				}
				s.CompletionModules = JoinIDs(ids)

				if ref := int64(s.CompletionExpectedCmid); ref > 0 {
					if to, ok := m[ref]; ok {
						s.CompletionExpectedCmid = Int(to)
					} else {
						s.CompletionExpectedCmid = ExpectedNone
						s.CompletionExpectedDatetime = 0
					}
				}
			}
		}
	}
	return dropped
}

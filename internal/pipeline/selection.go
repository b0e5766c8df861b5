package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Selection is the union of the stage flags given on the command line.
type Selection struct {
	All      bool
	Single   []int
	FromStep int
	Steps    string
}

// Resolve returns the selected stage numbers in ascending order without
// duplicates.
func (s Selection) Resolve() ([]int, error) {
	set := make(map[int]bool)
	if s.All {
		for n := 1; n <= StageCount; n++ {
			set[n] = true
		}
	}
	for _, n := range s.Single {
		set[n] = true
	}
	if s.FromStep != 0 {
		if err := checkStage(s.FromStep); err != nil {
			return nil, eris.Wrap(err, "--from-step")
		}
		for n := s.FromStep; n <= StageCount; n++ {
			set[n] = true
		}
	}
	if strings.TrimSpace(s.Steps) != "" {
		for _, part := range strings.Split(s.Steps, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, eris.Errorf("--steps: %q is not a stage number", part)
			}
			set[n] = true
		}
	}

	out := make([]int, 0, len(set))
	for n := range set {
		if err := checkStage(n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, eris.New("no stages selected: use --all, --stepN, --from-step or --steps")
	}
	sort.Ints(out)
	return out, nil
}

func checkStage(n int) error {
	if n < 1 || n > StageCount {
		return eris.Errorf("stage %d is outside 1..%d", n, StageCount)
	}
	return nil
}

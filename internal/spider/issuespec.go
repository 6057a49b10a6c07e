package spider

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Issue numbers are constrained to one annual volume.
const (
	minIssue = 1
	maxIssue = 12
)

// ErrSpecFormat reports an issue spec that does not match the grammar.
var ErrSpecFormat = errors.New("invalid issue spec")

// ErrSpecRange reports an issue number outside the valid 1-12 range, or a
// range whose start exceeds its end.
var ErrSpecRange = errors.New("issue out of range")

// ParseIssueSpec resolves a textual issue specification into a sorted,
// deduplicated list of issue numbers.
//
// The grammar is a comma-separated list of tokens, each either a single
// number ("3") or an inclusive range ("1-3"). Tokens may be mixed:
// "1-3,5,7-9" resolves to [1 2 3 5 7 8 9]. Empty tokens are ignored, so
// a fully empty spec resolves to an empty list.
func ParseIssueSpec(spec string) ([]int, error) {
	seen := make(map[int]struct{})

	for _, token := range strings.Split(strings.TrimSpace(spec), ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if strings.Contains(token, "-") {
			if err := accumulateRange(token, seen); err != nil {
				return nil, err
			}
			continue
		}
		n, err := parseIssueNumber(token)
		if err != nil {
			return nil, err
		}
		seen[n] = struct{}{}
	}

	issues := make([]int, 0, len(seen))
	for n := range seen {
		issues = append(issues, n)
	}
	sort.Ints(issues)
	return issues, nil
}

func accumulateRange(token string, seen map[int]struct{}) error {
	bounds := strings.Split(token, "-")
	if len(bounds) != 2 {
		return fmt.Errorf("%w: bad range %q", ErrSpecFormat, token)
	}
	start, err := parseIssueNumber(bounds[0])
	if err != nil {
		return err
	}
	end, err := parseIssueNumber(bounds[1])
	if err != nil {
		return err
	}
	if start > end {
		return fmt.Errorf("%w: range %q starts after it ends", ErrSpecRange, token)
	}
	for n := start; n <= end; n++ {
		seen[n] = struct{}{}
	}
	return nil
}

func parseIssueNumber(token string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrSpecFormat, token)
	}
	if n < minIssue || n > maxIssue {
		return 0, fmt.Errorf("%w: issue %d outside %d-%d", ErrSpecRange, n, minIssue, maxIssue)
	}
	return n, nil
}

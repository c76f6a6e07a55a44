package attribute

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Rule assigns Speaker to an item when every condition it sets holds.
// A rule that sets no condition matches everything.
type Rule struct {
	Speaker      string
	UntilSegment int           // items numbered 1..UntilSegment
	From         time.Duration // window start, inclusive
	To           time.Duration // window end, inclusive; zero means open
	Keywords     []string      // any of, case-insensitive
}

func (r Rule) matches(it Item, lowered string) bool {
	if r.UntilSegment > 0 && it.Index+1 > r.UntilSegment {
		return false
	}
	if r.From > 0 && it.Start < r.From {
		return false
	}
	if r.To > 0 && it.Start > r.To {
		return false
	}
	if len(r.Keywords) > 0 {
		return lo.SomeBy(r.Keywords, func(k string) bool {
			return strings.Contains(lowered, strings.ToLower(k))
		})
	}
	return true
}

// Rules attributes speakers from an ordered rule list; the first matching
// rule wins and items matching none get an empty speaker.
type Rules struct {
	rules []Rule
}

func NewRules(rules []Rule) (*Rules, error) {
	for i, r := range rules {
		if strings.TrimSpace(r.Speaker) == "" {
			return nil, fmt.Errorf("rule %d: speaker is required", i)
		}
		if r.To > 0 && r.From > r.To {
			return nil, fmt.Errorf("rule %d: window starts after it ends", i)
		}
	}
	return &Rules{rules: append([]Rule(nil), rules...)}, nil
}

func (r *Rules) Attribute(ctx context.Context, items []Item) ([]Result, error) {
	results := make([]Result, 0, len(items))
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, Result{Index: it.Index, Speaker: r.speakerFor(it)})
	}
	return results, nil
}

func (r *Rules) speakerFor(it Item) string {
	lowered := strings.ToLower(it.Text)
	rule, ok := lo.Find(r.rules, func(rule Rule) bool {
		return rule.matches(it, lowered)
	})
	if !ok {
		return ""
	}
	return rule.Speaker
}

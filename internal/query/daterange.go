package query

import (
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ParseSince resolves a natural-language expression like "3 days ago" or
// "last monday" for `list --since`/`--before` filters (§4.13).
func ParseSince(expr string, now time.Time) (*time.Time, error) {
	if expr == "" {
		return nil, nil
	}
	r, err := parser.Parse(expr, now)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return &r.Time, nil
}

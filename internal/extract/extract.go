// Package extract locates the produced image inside a terminal job payload
// whose shape is not stable across models.
package extract

import "neogen/internal/domain"

// Sections of a full prediction record that never hold results: the model
// input carries the conditioning images and urls the API links.
var fallbackSkipKeys = map[string]struct{}{
	"input": {},
	"urls":  {},
}

// Extractor is stateless; the same payload always yields the same locator.
type Extractor struct {
	grammar Grammar
}

func New(grammar Grammar) *Extractor {
	return &Extractor{grammar: grammar}
}

// Locate applies the matching precedence to an output value: a bare text,
// then the text elements of a top-level sequence, then a depth-first scan.
func (e *Extractor) Locate(output Value) (string, bool) {
	switch output.Kind() {
	case KindText:
		if e.grammar.Match(output.Text()) {
			return output.Text(), true
		}
	case KindSequence:
		for _, item := range output.Items() {
			if item.Kind() == KindText && e.grammar.Match(item.Text()) {
				return item.Text(), true
			}
		}
	}
	return e.scan(output)
}

// FromJob locates the image in the record's output, falling back to the full
// record minus its input and urls sections.
func (e *Extractor) FromJob(job *domain.JobRecord) (string, bool) {
	if job == nil {
		return "", false
	}
	if len(job.Output) > 0 {
		if output, err := Parse(job.Output); err == nil {
			if loc, ok := e.Locate(output); ok {
				return loc, true
			}
		}
	}
	if len(job.Raw) == 0 {
		return "", false
	}
	record, err := Parse(job.Raw)
	if err != nil {
		return "", false
	}
	if record.Kind() != KindMapping {
		return e.scan(record)
	}
	for _, f := range record.Fields() {
		if _, skip := fallbackSkipKeys[f.Key]; skip {
			continue
		}
		if loc, ok := e.scan(f.Value); ok {
			return loc, true
		}
	}
	return "", false
}

func (e *Extractor) scan(v Value) (string, bool) {
	var found string
	ok := v.Walk(func(s string) bool {
		if e.grammar.Match(s) {
			found = s
			return true
		}
		return false
	})
	return found, ok
}

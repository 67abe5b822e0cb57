package vcon

import "strings"

// Content unit sources. The source plus the index within that source
// identifies an embeddable span of text uniquely per record.
const (
	SourceSubject  = "subject"
	SourceDialog   = "dialog"
	SourceAnalysis = "analysis"
)

// ContentUnit is a single span of text belonging to a record that is a
// candidate for embedding.
type ContentUnit struct {
	VconUUID string
	Source   string
	Index    int
	Text     string
}

// PlainText reports whether an encoding marks a body as raw text. Structured
// and binary bodies stay keyword-searchable but are never embedded.
func PlainText(encoding string) bool {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingNone:
		return true
	default:
		return false
	}
}

// ContentUnits extracts every embeddable span from a record: the subject,
// plain-text dialog bodies, and plain-text analysis bodies, in that order.
func ContentUnits(v *Vcon) []ContentUnit {
	var units []ContentUnit

	if s := strings.TrimSpace(v.Subject); len(s) > 0 {
		units = append(units, ContentUnit{
			VconUUID: v.UUID,
			Source:   SourceSubject,
			Index:    0,
			Text:     s,
		})
	}

	for i, d := range v.Dialog {
		if !PlainText(d.Encoding) {
			continue
		}
		if len(strings.TrimSpace(d.Body)) == 0 {
			continue
		}
		units = append(units, ContentUnit{
			VconUUID: v.UUID,
			Source:   SourceDialog,
			Index:    i,
			Text:     d.Body,
		})
	}

	for i, a := range v.Analysis {
		if !PlainText(a.Encoding) {
			continue
		}
		if len(strings.TrimSpace(a.Body)) == 0 {
			continue
		}
		units = append(units, ContentUnit{
			VconUUID: v.UUID,
			Source:   SourceAnalysis,
			Index:    i,
			Text:     a.Body,
		})
	}

	return units
}

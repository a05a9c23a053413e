package xfyun

import "strings"

// Transcript accumulates incremental recognition fragments and applies
// replace-range corrections.
//
// Every append pushes one fragment; a replace-range marks previously
// emitted fragment positions as superseded but keeps them in place so
// later ranges still address the same positions. The visible text is the
// join of all non-superseded fragments in emission order.
type Transcript struct {
	fragments []fragment
}

type fragment struct {
	text       string
	superseded bool
}

// Apply folds one recognition result into the transcript
func (t *Transcript) Apply(res *RecognitionResult) {
	if res == nil {
		return
	}
	switch res.Pgs {
	case PgsAppend:
		t.fragments = append(t.fragments, fragment{text: res.Text})
	case PgsReplace:
		// 1-based inclusive range over previously emitted fragments.
		// Re-superseding an already removed position is idempotent.
		lo, hi := res.Range[0], res.Range[1]
		if lo < 1 {
			lo = 1
		}
		if hi > len(t.fragments) {
			hi = len(t.fragments)
		}
		for i := lo; i <= hi; i++ {
			t.fragments[i-1].superseded = true
		}
	}
}

// Text returns the caller-visible transcript
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, f := range t.fragments {
		if !f.superseded {
			b.WriteString(f.text)
		}
	}
	return b.String()
}

// Fragments returns the texts of all emitted fragments, superseded ones
// included, in emission order
func (t *Transcript) Fragments() []string {
	out := make([]string, len(t.fragments))
	for i, f := range t.fragments {
		out[i] = f.text
	}
	return out
}

// Visible reports whether the 1-based fragment position is still part of
// the visible rendering
func (t *Transcript) Visible(pos int) bool {
	if pos < 1 || pos > len(t.fragments) {
		return false
	}
	return !t.fragments[pos-1].superseded
}

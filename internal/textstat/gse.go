package textstat

import (
	"fmt"
	"iter"

	"github.com/go-ego/gse"
)

// GSE segments Chinese text with a gse dictionary in HMM mode.
// Cut does not mutate the segmenter, so one GSE may be shared.
type GSE struct {
	seg gse.Segmenter
}

// NewGSE loads the dictionary files in dicts, or the embedded Chinese
// dictionary when none are given.
func NewGSE(dicts ...string) (*GSE, error) {
	g := &GSE{}
	g.seg.SkipLog = true

	var err error
	if len(dicts) == 0 {
		err = g.seg.LoadDictEmbed()
	} else {
		err = g.seg.LoadDict(dicts...)
	}
	if err != nil {
		return nil, fmt.Errorf("load segmenter dictionary: %w", err)
	}
	return g, nil
}

func (g *GSE) Segment(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, tok := range g.seg.Cut(text, true) {
			if !yield(tok) {
				return
			}
		}
	}
}

package cli

import (
	"io"
	"sync"

	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"

	"github.com/bcdannyboy/stochsim/simulation"
)

// progress renders one bar per simulation run on w.
type progress struct {
	p *mpb.Progress

	mu   sync.Mutex
	bars []*mpb.Bar
}

func newProgress(w io.Writer) *progress {
	return &progress{p: mpb.New(mpb.WithWidth(64), mpb.WithOutput(w))}
}

func (pr *progress) Func() simulation.ProgressFunc {
	return func(kind string, total int) func() {
		bar := pr.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name(kind),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
			),
		)
		pr.mu.Lock()
		pr.bars = append(pr.bars, bar)
		pr.mu.Unlock()
		return bar.Increment
	}
}

// Wait flushes the bars. Bars of runs that stopped early are aborted so Wait
// never blocks on them.
func (pr *progress) Wait() {
	pr.mu.Lock()
	for _, bar := range pr.bars {
		if !bar.Completed() {
			bar.Abort(false)
		}
	}
	pr.mu.Unlock()
	pr.p.Wait()
}

// Copyright 2015 the GoSpatial Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// licence that can be found in the LICENCE.txt file.

package tools

import (
	"sync"

	"github.com/gosuri/uiprogress"
)

// progressBars draws one bar per pass of a routing operation.
type progressBars struct {
	mu    sync.Mutex
	p     *uiprogress.Progress
	bar   *uiprogress.Bar
	stage string
	total int
}

func newProgressBars() *progressBars {
	p := uiprogress.New()
	p.Start()
	return &progressBars{p: p}
}

func (b *progressBars) report(stage string, done, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar == nil || stage != b.stage || total != b.total {
		b.stage, b.total = stage, total
		if total < 1 {
			total = 1
		}
		label := stage
		b.bar = b.p.AddBar(total).AppendCompleted().PrependElapsed()
		b.bar.PrependFunc(func(*uiprogress.Bar) string {
			return label
		})
	}
	b.bar.Set(done)
}

func (b *progressBars) stop() {
	b.p.Stop()
}

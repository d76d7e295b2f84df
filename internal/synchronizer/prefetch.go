package synchronizer

import (
	"context"
	"path/filepath"

	"media-catalog/internal/catalog"
	"media-catalog/internal/workers"
)

// buildJob is one added or updated file awaiting fingerprint and thumbnail.
type buildJob struct {
	file   FileEntry
	reason catalog.Reason
}

type buildResult struct {
	asset catalog.Asset
	thumb []byte
	err   error
}

// prefetcher builds assets ahead of the walk on a bounded worker group.
// Results are consumed in job order, so events keep walk order.
type prefetcher struct {
	s       *Synchronizer
	ctx     context.Context
	cancel  context.CancelFunc
	folder  *catalog.Folder
	jobs    []buildJob
	group   *workers.Group
	futures []*workers.Future[buildResult]
}

// prefetch starts building the first limit jobs when more than one worker
// is configured. Other jobs are built on demand by get.
func (s *Synchronizer) prefetch(ctx context.Context, folder *catalog.Folder, jobs []buildJob, limit int) *prefetcher {
	ctx, cancel := context.WithCancel(ctx)
	p := &prefetcher{
		s:      s,
		ctx:    ctx,
		cancel: cancel,
		folder: folder,
		jobs:   jobs,
		group:  workers.NewGroup(s.opts.Workers),
	}

	n := 0
	if s.opts.Workers > 1 {
		n = min(len(jobs), max(limit, 0))
	}
	p.futures = make([]*workers.Future[buildResult], n)
	for i := 0; i < n; i++ {
		f := jobs[i].file
		p.futures[i] = workers.Submit(p.group, func() buildResult {
			return p.build(f)
		})
	}
	return p
}

func (p *prefetcher) get(i int) buildResult {
	if i < len(p.futures) {
		return p.futures[i].Get()
	}
	return p.build(p.jobs[i].file)
}

func (p *prefetcher) build(f FileEntry) buildResult {
	if err := p.ctx.Err(); err != nil {
		return buildResult{err: err}
	}
	if err := p.s.memory.Wait(p.ctx); err != nil {
		return buildResult{err: err}
	}
	asset, thumb, err := p.s.buildAsset(p.folder, f)
	if err != nil {
		return buildResult{err: err}
	}
	return buildResult{asset: asset, thumb: thumb}
}

// wait abandons unconsumed builds and blocks until in-flight ones finish.
func (p *prefetcher) wait() {
	p.cancel()
	p.group.Wait()
}

// fullPath is the on-disk path of f in folder.
func fullPath(folder *catalog.Folder, f FileEntry) string {
	return filepath.Join(folder.Path, f.Name)
}

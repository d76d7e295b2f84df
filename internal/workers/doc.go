/*
Package workers sizes and runs bounded worker pools.

Worker counts derive from GOMAXPROCS, which the Go runtime sets from the
container CPU limit, rather than runtime.NumCPU, which reports host CPUs.
CATALOG_WORKERS overrides the computed count:

	workers.ForCPU(8)   // 1 per CPU, at most 8
	workers.ForMixed(8) // 1.5 per CPU, at most 8

[Requested] is for work that runs serially unless CATALOG_WORKERS asks
otherwise, with "auto" selecting ForMixed.

A [Group] runs submitted jobs with at most n in flight. Each [Submit] returns
a [Future], so results can be consumed in submission order while later jobs
are still running.
*/
package workers

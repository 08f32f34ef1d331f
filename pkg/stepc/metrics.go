package stepc

import "github.com/prometheus/client_golang/prometheus"

var (
	Compiles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepc_compiles_total",
		Help: "The number of programs compiled.",
	})
	CompileFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepc_compile_failures_total",
			Help: "The number of programs rejected, by the phase that rejected them.",
		},
		[]string{"phase"},
	)
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stepc_cache_lookups_total",
			Help: "Compiled-program cache lookups, by result.",
		},
		[]string{"result"},
	)
	Statements = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepc_statements_executed_total",
		Help: "The number of flat statements executed across all runs.",
	})
	RuntimeFaults = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepc_runtime_faults_total",
		Help: "The number of runs that ended with a run-time diagnostic.",
	})
	HeapAllocations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stepc_heap_allocations_total",
		Help: "The number of heap blocks created by malloc, calloc and realloc.",
	})
)

// Collectors returns every metric of this package for registration
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		Compiles, CompileFailures, CacheLookups, Statements, RuntimeFaults, HeapAllocations,
	}
}

// Command fireline manages ensembles of fire-spread simulation cases: it
// synthesizes inputs, submits batch jobs, harvests finished runs, and
// aggregates ensemble statistics.
package main

// Package core defines the domain model shared by every other package in
// interviewmesh: candidate and job inputs, interview topics, the append-only
// conversation log, response evaluations and the InterviewSession aggregate
// that ties them together.
//
// Types here carry no behavior beyond bookkeeping invariants (message
// counters, topic lookup, score averaging) and snapshot/restore support.
// All orchestration logic lives in the orchestrator package; all reasoning
// calls live behind the reasoning package.
package core

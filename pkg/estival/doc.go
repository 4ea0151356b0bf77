// Package estival assigns volleyball tournament participants to a fixed
// multi-day calendar of stage and open events, subject to per-participant
// wish counts, availability windows, couple separation, team sizing, and a
// fatigue penalty.
//
// The engine is built on the gokanlogic finite-domain constraint solver.
// Solving proceeds in two passes: pass 1 minimizes a hierarchical weighted
// objective whose dominant tier is the worst individual day shortage; pass 2
// pins that optimum and enumerates every feasible assignment, collapsing
// permutation-equivalent results into unique relaxation profiles. When no
// fully satisfying assignment exists, MultiPassSolver probes which single
// wish reductions unblock the model and drives a guided relaxation loop,
// backed by a structural conflict diagnosis.
//
// All entry points are stateless: each call receives fresh participant and
// tournament slices and never mutates them. Relaxation works on clones.
package estival

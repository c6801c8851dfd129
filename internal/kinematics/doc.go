// Package kinematics assembles the generalized-coordinate layout of a tree of
// bodies and flow lines and evaluates frame kinematics on demand.
//
// Bodies, frames and lines live in one arena ([Tree]) and refer to each other
// by index ([BodyID], [FrameID], [LineID]). The assembler runs a topological
// pass over the dependency graph, assigns contiguous index ranges, and
// computes flow-line Jacobians once all upstream lines are ready. Frame
// positions, orientations, Jacobians and bias accelerations are cached per
// body and recomputed lazily after [Tree.SetState] or [Tree.Invalidate].
package kinematics

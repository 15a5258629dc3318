// Package track owns the shared data model of the comparison pipeline.
//
// Responsibilities: the parsed track point, the kinematically enriched
// point, the merged cross-track sample and the summary record, together
// with the error taxonomy and the boundary time format.
//
// Dependency rule: track imports nothing else from this module. Every
// pipeline stage (gpx, reconcile, kinematics, compare) depends on it.
package track

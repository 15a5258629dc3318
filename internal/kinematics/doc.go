// Package kinematics derives distances, speeds, accelerations and
// trailing moving averages from a time-ordered track.
//
// Derive is a single forward scan. Each point depends only on its
// predecessor, except for the moving averages, which are kept in a
// time-based sliding window over the most recent samples.
package kinematics

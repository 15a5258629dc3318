// Package reconcile repairs GPS logger timestamps that roll over at
// midnight without advancing the date.
//
// Two passes run in order. The whole-file pass decides from the shape of
// the entire log whether it crosses midnight and, if so, moves every
// early-morning point to the next day. The sequential pass then walks the
// points and adds a whole day each time a large backward step remains.
// Neither pass reorders points; both shift instants by whole days only.
package reconcile

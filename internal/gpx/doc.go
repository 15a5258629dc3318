// Package gpx reads GPS exchange files into track points.
//
// Only track points (trk/trkseg/trkpt) are read, in file order. Points
// without both an elevation and a timestamp are skipped. Times are
// normalised to UTC; a timestamp without a zone is taken to be UTC.
package gpx

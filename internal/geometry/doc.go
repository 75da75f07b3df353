// Package geometry owns the planar model of measurement regions.
//
// Responsibilities: point containment with a strict/inclusive distinction,
// segment predicates and distances, bounding boxes, and the registry that
// maps configured area ids to regions.
// Key types: Region, Area, Line, PolygonArea, LineArea, Registry.
//
// Coordinates are metres. Containment is delegated to orb/planar; boundary
// coincidence is decided separately so callers can tell interior points from
// points lying on an edge.
package geometry

/*
go-geodetect turns object detections made on aerial and drone imagery into
GeoJSON features.

Two kinds of imagery are supported.  Large georeferenced orthomosaics are cut
into overlapping tiles, each tile is run through the detector, duplicates
created by the overlap are removed and the remaining boxes are projected
through the rasters geotransform and CRS into Polygon features.  Single oblique
photographs are localized from the camera pose in their EXIF metadata, giving
one Point feature per detection.

See cmd/geodetect for a command line interface to both pipelines.
*/
package geodetect

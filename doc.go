// Package histmosaic provides methods for generating photomosaic images
// given a set of sample images. It divides a query image into tiles of a
// fixed size and replaces each tile by the sample whose color histogram is
// most similar to the histogram of the tile.
//
// Histograms are joint RGB histograms with k sub-divisions per channel.
// Samples and tiles are compared with one of the registered metrics
// (correlation, chi-squared, intersection, hellinger and some vector
// distances), each metric knows if the best match minimizes or maximizes
// its value.
//
// It ships with an executable program (cmd/histmosaic) to generate mosaics
// and to serve mosaics over HTTP.
package histmosaic

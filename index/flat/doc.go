// Package flat provides an exact vector index that answers top-k and range
// queries by scanning every stored vector with squared L2 distance. With
// normalization enabled the distance ranking is equivalent to cosine
// similarity. It supports a compact checksummed binary format for persistence.
package flat

/*
Package ngram builds empirical n-gram frequency tables from token sequences
and persists them in a flat, string-keyed JSON format.

A Table maps fixed-length Keys to non-negative weights. Tables produced by
Compute are normalized probability distributions; tables produced by Count
hold raw observation counts. Both kinds round-trip exactly through Save and
Load. Multi-token keys are persisted by joining their tokens with Delimiter,
so no token may contain it.
*/
package ngram

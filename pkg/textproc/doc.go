// Package textproc turns raw corpus text into the token sequences the n-gram
// analyzer consumes: cleaned, normalized text split into sentences, words,
// and characters.
package textproc

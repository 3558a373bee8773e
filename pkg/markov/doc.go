/*
Package markov generates text from n-gram frequency tables by Markov-chain
sampling, and manages the tables behind it.

A Generator wraps one immutable ngram.Table for a (modality, order) pair.
Each call to Generate seeds its output with a key drawn uniformly from the
table, then repeatedly draws the next token from the candidates whose
context prefix matches the trailing order-1 tokens of the output, stopping
early when no candidate exists. Order 0 ignores context entirely and draws
every token from the unconditional distribution of the order-1 table.

Tables are persisted through a TableStore: FileStore keeps one JSON file per
table, SQLStore keeps them in a SQL database. Analyzer builds and saves the
character and word tables of a corpus.
*/
package markov

/*
Package markov implements an order-N Markov chain text generator for short
posts. A Model is built in a single pass over a corpus of source texts and
sampled immediately; nothing about the model persists between runs.

Sampling is reproducible: pass a seeded *rand.Rand through WithRand and the
same model produces the same output every time.
*/
package markov

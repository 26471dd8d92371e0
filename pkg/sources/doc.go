/*
Package sources gathers candidate texts for the corpus: static post files,
CSV post archives, scraped web pages, and live Mastodon and Bluesky feeds.
All clients take explicit configuration and an injected http.Client; there
is no package-level client state.
*/
package sources

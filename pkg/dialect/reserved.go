// SPDX-License-Identifier: Apache-2.0

package dialect

import "strings"

// reservedWords is not exhaustive for any dialect; it covers the words code
// generators most commonly collide with (SQL-92 keywords plus a handful of
// dialect-specific additions) and is enough to make the Synthesizer's
// reserved-word warning useful without shipping a full grammar.
var reservedWords = map[Name]map[string]bool{
	SQLServer: wordSet("user", "order", "group", "table", "select", "index", "key", "column",
		"primary", "foreign", "check", "default", "identity", "view", "procedure", "function",
		"transaction", "rule", "public", "unique", "schema"),
	Postgres: wordSet("user", "order", "group", "table", "select", "index", "key", "column",
		"primary", "foreign", "check", "default", "view", "procedure", "function", "analyze",
		"cast", "limit", "offset", "unique", "schema"),
	MySQL: wordSet("user", "order", "group", "table", "select", "index", "key", "column",
		"primary", "foreign", "check", "default", "view", "procedure", "function", "rank",
		"row", "unique", "schema", "interval"),
	Oracle: wordSet("user", "order", "group", "table", "select", "index", "key", "column",
		"primary", "foreign", "check", "default", "view", "procedure", "function", "level",
		"number", "date", "comment", "unique", "schema", "resource"),
	SQLite: wordSet("user", "order", "group", "table", "select", "index", "key", "column",
		"primary", "foreign", "check", "default", "view", "unique", "abort", "transaction"),
}

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// IsReservedWord reports whether identifier is a reserved word in dialect n,
// case-insensitively.
func (n Name) IsReservedWord(identifier string) bool {
	set, ok := reservedWords[n]
	if !ok {
		return false
	}
	return set[strings.ToLower(identifier)]
}

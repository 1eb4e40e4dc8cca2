package augment

// DefaultSynonyms returns a small software-engineering thesaurus for lexical
// substitution. A fresh map is returned on every call so callers may extend
// it without affecting other pipelines.
func DefaultSynonyms() map[string][]string {
	return map[string][]string{
		"shall":     {"must", "will"},
		"must":      {"shall", "will"},
		"user":      {"operator", "client"},
		"users":     {"operators", "clients"},
		"system":    {"application", "software"},
		"display":   {"show", "present"},
		"show":      {"display", "present"},
		"store":     {"save", "persist"},
		"save":      {"store", "persist"},
		"delete":    {"remove", "erase"},
		"remove":    {"delete", "erase"},
		"create":    {"add", "generate"},
		"update":    {"modify", "change"},
		"modify":    {"update", "change"},
		"change":    {"modification", "update"},
		"error":     {"failure", "fault"},
		"failure":   {"error", "fault"},
		"send":      {"transmit", "dispatch"},
		"receive":   {"accept", "obtain"},
		"log":       {"record", "journal"},
		"record":    {"entry", "log"},
		"check":     {"verify", "validate"},
		"verify":    {"check", "validate"},
		"validate":  {"verify", "check"},
		"request":   {"call", "query"},
		"response":  {"reply", "answer"},
		"message":   {"notification", "event"},
		"data":      {"information", "records"},
		"file":      {"document", "artifact"},
		"quickly":   {"rapidly", "promptly"},
		"function":  {"routine", "procedure"},
		"returns":   {"yields", "produces"},
		"password":  {"passphrase", "credential"},
		"login":     {"sign-in", "logon"},
		"configure": {"set up", "customize"},
	}
}

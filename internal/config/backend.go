package config

// ConfigBackend abstracts where persisted settings live. Keys are the
// dotted names from the key table ("chat.api_url").
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}

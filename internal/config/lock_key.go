package config

type LockKeyStruct struct {
	CatalogSync string
}

// LockKey names the redis keys used as mutual-exclusion locks.
var LockKey = &LockKeyStruct{
	CatalogSync: "lock:catalog_sync",
}

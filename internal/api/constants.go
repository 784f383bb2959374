package api

// Cache-Control header values.
const (
	CacheOneDay  = "public, max-age=86400"
	CacheNoStore = "no-store"
)

// Form field names, shared with the templates.
const (
	fieldUsername   = "username"
	fieldPassword   = "password"
	fieldListName   = "listName"
	fieldList       = "list"
	fieldAddItem    = "addItem"
	fieldDeleteItem = "deleteItem"
)

// maxUserAgentLength bounds the user agent stored with a session.
const maxUserAgentLength = 512

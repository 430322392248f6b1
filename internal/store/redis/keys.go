package redis

const (
	// KeyPrefixCode is the prefix for scannable code documents
	KeyPrefixCode = "qrcard:code:"
	// KeyAllCodes is the set of every code ever created
	KeyAllCodes = "qrcard:codes:all"
	// KeyPrefixDirectory is the prefix for owners' directory documents
	KeyPrefixDirectory = "qrcard:directory:"
	// KeyAllOwners is the set of owners with a saved directory
	KeyAllOwners = "qrcard:owners:all"
	// KeyPrefixScans is the prefix for per-code scan lists
	KeyPrefixScans = "qrcard:scans:code:"
	// KeyAllScans is the list of every scan, newest at the head
	KeyAllScans = "qrcard:scans:all"
	// KeyPrefixPending is the prefix for deferred action slots
	KeyPrefixPending = "qrcard:pending:"
	// KeyPlatforms holds the last good platform catalog
	KeyPlatforms = "qrcard:platforms"
)

// CodeKey returns the Redis key for a code
func CodeKey(code string) string {
	return KeyPrefixCode + code
}

// DirectoryKey returns the Redis key for an owner's directory
func DirectoryKey(owner string) string {
	return KeyPrefixDirectory + owner
}

// ScansKey returns the Redis key for a code's scan list
func ScansKey(code string) string {
	return KeyPrefixScans + code
}

// PendingKey returns the Redis key for a session's pending action
func PendingKey(session string) string {
	return KeyPrefixPending + session
}

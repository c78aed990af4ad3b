// -----------------------------------------------------------------------
// Last Modified: Tuesday, 12th August 2025 9:24:18 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

// StorageManager - interface for managing storage lifecycle
type StorageManager interface {
	// KeyValueStorage returns the key/value storage instance
	KeyValueStorage() KeyValueStorage

	// Close closes all storage connections
	Close() error
}

// Package domain holds the core entities of the netfence inventory:
// accounts, network segments (VLANs), devices, the segment communication
// matrix, switch port configuration, and the audit trail. It also owns
// input validation and the error taxonomy shared by every layer above it.
package domain

package realtime

// Streams owners can subscribe to.
const (
	// StreamGroups carries group formation events for the owner's projects.
	StreamGroups = "groups"
)

// EventGroupFormed is published on StreamGroups once a group has its repository.
const EventGroupFormed = "group.formed"

// DefaultStreams lists every stream the hub serves.
func DefaultStreams() []string {
	return []string{StreamGroups}
}

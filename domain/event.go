package domain

// Named events fired toward the real-time transport after a mutation.
const (
	EventPostCreated   = "post_created"
	EventCommentAdded  = "comment_added"
	EventLikeAdded     = "like_added"
	EventLikeRemoved   = "like_removed"
	EventFollowerAdded = "follower_added"
)

// EventSink receives broadcast events carrying the mutated entity and its
// foreign keys. Delivery is at-most-once and best-effort: a dropped event
// is never a persistence failure. The sink owns no connection or room
// management; that lives entirely in the transport behind it.
type EventSink interface {
	Publish(event string, payload interface{}) error
}

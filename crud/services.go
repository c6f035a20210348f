package crud

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"wtfSocial/domain"
)

// A ServicesConfig is any function that takes in a pointer to a Services
// object and returns an error. It's basically just wrapping the constructor
// method of any given crud service. It exists to be able to easily create
// the crud services using functional options in main.go.
type ServicesConfig func(*Services) error

// Services is a container object holding pointers to all the crud services.
// The crud services all share the database connection provided by Services.
// Options that trigger fan-out (WithFollow, WithPost, WithComment, WithLike)
// read s.User and s.Notification, so WithUser and WithNotification must come
// before them in the option list.
type Services struct {
	db           *gorm.DB
	User         *UserService
	Follow       *FollowService
	Post         *PostService
	Comment      *CommentService
	Like         *LikeService
	Notification *NotificationService
	Feed         *FeedService
}

// NewServices returns a new Services object, containing any crud services
// it's told to create by one of the passed in ServicesConfig functions.
// It shares the passed in database connection with any crud service it creates.
func NewServices(db *gorm.DB, cfgs ...ServicesConfig) (*Services, error) {
	s := Services{
		db: db,
	}
	for _, cfg := range cfgs {
		if err := cfg(&s); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// WithUser wraps the constructor of UserService, NewUserService.
func WithUser() ServicesConfig {
	return func(s *Services) error {
		s.User = NewUserService(s.db)
		return nil
	}
}

// WithNotification wraps the constructor of NotificationService.
// A nil clock means time.Now, a nil recorder disables metrics.
func WithNotification(clock func() time.Time, rec Recorder) ServicesConfig {
	return func(s *Services) error {
		s.Notification = NewNotificationService(s.db, clock, rec)
		return nil
	}
}

// WithFollow wraps the constructor of FollowService, NewFollowService.
func WithFollow(sink domain.EventSink, rec Recorder) ServicesConfig {
	return func(s *Services) error {
		s.Follow = NewFollowService(s.db, s.User, newBroadcaster(s.Notification, sink, rec))
		return nil
	}
}

// WithPost wraps the constructor of PostService, NewPostService.
func WithPost(images domain.ImageService, sink domain.EventSink, rec Recorder) ServicesConfig {
	return func(s *Services) error {
		s.Post = NewPostService(s.db, s.User, images, newBroadcaster(s.Notification, sink, rec))
		return nil
	}
}

// WithComment wraps the constructor of CommentService, NewCommentService.
func WithComment(sink domain.EventSink, rec Recorder) ServicesConfig {
	return func(s *Services) error {
		s.Comment = NewCommentService(s.db, s.User, newBroadcaster(s.Notification, sink, rec))
		return nil
	}
}

// WithLike wraps the constructor of LikeService, NewLikeService.
func WithLike(sink domain.EventSink, rec Recorder) ServicesConfig {
	return func(s *Services) error {
		s.Like = NewLikeService(s.db, newBroadcaster(s.Notification, sink, rec))
		return nil
	}
}

// WithFeed wraps the constructor of FeedService, NewFeedService.
// The cache may be nil.
func WithFeed(cache domain.TrendingCache, rec Recorder) ServicesConfig {
	return func(s *Services) error {
		s.Feed = NewFeedService(s.db, cache, rec)
		return nil
	}
}

// Recorder counts fan-out and feed outcomes. metrics.Collector implements it.
type Recorder interface {
	RecordNotificationCreated(ntype string)
	RecordNotificationDeduped(ntype string)
	RecordNotificationSuppressed()
	RecordFanoutFailure()
	RecordEventPublished(event string)
	RecordFeedQuery(kind string)
}

// nopRecorder is used wherever no Recorder was provided.
type nopRecorder struct{}

func (nopRecorder) RecordNotificationCreated(string) {}
func (nopRecorder) RecordNotificationDeduped(string) {}
func (nopRecorder) RecordNotificationSuppressed()    {}
func (nopRecorder) RecordFanoutFailure()             {}
func (nopRecorder) RecordEventPublished(string)      {}
func (nopRecorder) RecordFeedQuery(string)           {}

// broadcaster bundles the two side channels of a mutation: notification
// fan-out and event-sink broadcast. Both are best-effort. A failure is
// logged and counted but never surfaces to the primary mutation.
type broadcaster struct {
	notifier domain.NotificationService
	sink     domain.EventSink
	rec      Recorder
}

func newBroadcaster(notifier *NotificationService, sink domain.EventSink, rec Recorder) broadcaster {
	if rec == nil {
		rec = nopRecorder{}
	}
	b := broadcaster{
		sink: sink,
		rec:  rec,
	}
	// A nil *NotificationService must stay a nil interface, or the fanout
	// nil check would pass on a typed nil and crash on the first mutation.
	if notifier != nil {
		b.notifier = notifier
	}
	return b
}

// fanout hands a notification to the NotificationService, swallowing errors.
func (b broadcaster) fanout(n *domain.Notification) {
	if b.notifier == nil {
		return
	}
	if _, err := b.notifier.Create(n); err != nil {
		b.rec.RecordFanoutFailure()
		slog.Error("notification fan-out failed",
			"type", n.Type,
			"recipient", n.RecipientID,
			"err", err)
	}
}

// publish broadcasts an event to the sink, swallowing errors.
func (b broadcaster) publish(event string, payload interface{}) {
	if b.sink == nil {
		return
	}
	if err := b.sink.Publish(event, payload); err != nil {
		slog.Warn("event publish failed", "event", event, "err", err)
		return
	}
	b.rec.RecordEventPublished(event)
}

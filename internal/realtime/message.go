package realtime

// Event names understood by connected clients
const (
	EventNotification = "notification"
	EventPosts        = "posts"
	EventPostsUpdate  = "posts:update"
)

// Message is the envelope written to a connection
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

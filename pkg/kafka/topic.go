package kafka

// TopicPrefix namespaces every topic this system writes.
const TopicPrefix = "reviews"

// Topic builds "<prefix>.<domain>.<action>", e.g. reviews.review.created.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}

package models

// DeliveryRecord is the logged result of handling one webhook delivery
type DeliveryRecord struct {
	DeliveryID   string
	EventType    string
	Repository   string
	IssueNumber  int
	Command      string
	Outcome      string
	Tokens       int
	StatusCode   int
	ErrorMessage string
	Payload      []byte
}

// Succeeded reports whether the delivery was answered with a 2xx status
func (r DeliveryRecord) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

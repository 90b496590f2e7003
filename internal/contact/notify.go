package contact

import "errors"

// Kind separates good news from bad in a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a transient toast shown after a submit attempt.
type Notification struct {
	Kind  Kind
	Title string
	Text  string
}

const (
	defaultSuccess = "Your message has been sent successfully."
	defaultFailure = "Failed to send message. Please try again."
)

// NotifySuccess builds the toast for an accepted message. An empty server
// message falls back to a generic confirmation.
func NotifySuccess(serverMsg string) Notification {
	if serverMsg == "" {
		serverMsg = defaultSuccess
	}
	return Notification{Kind: KindSuccess, Title: "Success!", Text: serverMsg}
}

// NotifyFailure builds the toast for err. Validation problems and server
// replies show their own message; everything else gets a generic retry hint.
func NotifyFailure(err error) Notification {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return Notification{Kind: KindError, Title: "Error", Text: ve.Message}
	}
	var se *SubmitError
	if errors.As(err, &se) && se.Reply != "" {
		return Notification{Kind: KindError, Title: "Error", Text: se.Reply}
	}
	return Notification{Kind: KindError, Title: "Error", Text: defaultFailure}
}

// Package mail delivers account-flow notifications. The core calls it through
// the Mailer interface; the SMTP implementation lives in smtp.go.
package mail

import "context"

// Mailer sends the password recovery email. The callback value is an opaque
// client-supplied reference used only to build the link in the message body;
// it is never trusted for any decision.
type Mailer interface {
	SendRecoveryEmail(ctx context.Context, to string, token string, callback string) error
}

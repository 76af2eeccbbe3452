package ports

// Notifier delivers a verification code to a phone. Send must not block the
// caller and its failure must never fail the request that triggered it;
// delivery is strictly best-effort.
type Notifier interface {
	Send(phone int64, code string)
}
